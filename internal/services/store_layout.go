package services

import (
	"strconv"
	"strings"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// MajorSection is one zone of the generic store walk
type MajorSection struct {
	ID          string            `json:"id"`
	Label       string            `json:"label"`
	Rank        int               `json:"rank"`
	Category    models.CategoryID `json:"category"`
	Subsections []string          `json:"subsections"`
}

// Walk order from the entrance to the registers
var majorSections = []MajorSection{
	{ID: "entry_front_of_store", Label: "Entry / Front of store", Category: models.CategoryOther, Subsections: []string{
		"Seasonal / promos / endcaps",
		"Membership desk (warehouse clubs)",
		"Returns and customer service",
		"Pharmacy pickup window (drugstores, some groceries)",
		"Photo / print counter (drugstores)",
		"Optical (warehouse clubs, some big box)",
		"Hearing aid center (warehouse clubs)",
		"Carts / baskets",
		"Grab and go coolers",
		"Flowers and plants (some stores)",
		"Travel and impulse items",
	}},
	{ID: "produce", Label: "Produce", Category: models.CategoryProduce, Subsections: []string{
		"Organic produce",
		"Conventional produce",
		"Fresh herbs",
		"Packaged salads / cut fruit",
		"Bulk produce (potatoes, onions) and mushrooms",
	}},
	{ID: "bakery", Label: "Bakery", Category: models.CategoryBakery, Subsections: []string{
		"Fresh bread",
		"Pastries and desserts",
		"Tortillas / pita / wraps",
		"Custom cakes / special orders",
		"In store bakery production area (some stores)",
	}},
	{ID: "prepared_foods_and_deli_cluster", Label: "Prepared foods and deli cluster", Category: models.CategoryDeli, Subsections: []string{
		"Prepared foods (hot bar, salad bar, soups)",
		"Pizza / sandwiches (where offered)",
		"Deli counter (sliced meats)",
		"Rotisserie chicken",
		"Ready to eat packaged meals",
		"Charcuterie and antipasti",
	}},
	{ID: "cheese_and_specialty_dairy", Label: "Cheese and specialty dairy", Category: models.CategoryDairyEggs, Subsections: []string{
		"Specialty cheese case",
		"Packaged cheese",
		"Yogurt / cultured dairy",
		"Butter and cream",
		"Eggs (sometimes nearby)",
	}},
	{ID: "meat_and_poultry", Label: "Meat and poultry", Category: models.CategoryMeatSeafood, Subsections: []string{
		"Service counter (butcher)",
		"Packaged meats",
		"Sausages and marinated items",
		"Broth / stocks nearby (sometimes)",
	}},
	{ID: "seafood", Label: "Seafood", Category: models.CategoryMeatSeafood, Subsections: []string{
		"Fresh fish counter",
		"Shellfish",
		"Smoked and packaged seafood",
	}},
	{ID: "perimeter_refrigerated_wall", Label: "Perimeter refrigerated wall", Category: models.CategoryDairyEggs, Subsections: []string{
		"Milk and alt milks",
		"Refrigerated breakfast meats",
		"Fresh pasta",
		"Refrigerated sauces, pesto, hummus, dips",
		"Tofu / tempeh / plant based proteins",
		"Refrigerated ready meals",
	}},
	{ID: "frozen", Label: "Frozen", Category: models.CategoryFrozen, Subsections: []string{
		"Ice cream and novelties",
		"Frozen fruit and vegetables",
		"Frozen meals",
		"Frozen pizza",
		"Frozen breakfast",
		"Frozen meat and seafood",
		"Ice",
	}},
	{ID: "alcohol", Label: "Alcohol (varies by state and store)", Category: models.CategoryBeverages, Subsections: []string{
		"Beer",
		"Wine",
		"Spirits (where legal)",
		"Mixers (sometimes)",
	}},
	{ID: "dry_grocery_aisles", Label: "Dry grocery aisles", Category: models.CategoryPantry, Subsections: []string{
		"Pasta, grains, rice",
		"Canned goods",
		"Sauces and condiments",
		"International foods",
		"Oils and vinegars",
		"Spices and seasonings",
		"Baking supplies",
		"Cereal and breakfast",
		"Coffee and tea",
		"Crackers and shelf stable breads",
		"Snacks",
		"Candy",
	}},
	{ID: "bulk_foods", Label: "Bulk foods (if present)", Category: models.CategoryPantry, Subsections: []string{
		"Bulk grains, beans, pasta",
		"Bulk nuts and dried fruit",
		"Bulk candy",
		"Bulk spices / coffee (some stores)",
	}},
	{ID: "beverages", Label: "Beverages (often spans multiple aisles in larger stores)", Category: models.CategoryBeverages, Subsections: []string{
		"Water and sparkling water",
		"Soda",
		"Juice (shelf stable)",
		"Sports drinks and energy drinks",
		"Drink mixes and powdered beverages",
	}},
	{ID: "health_and_wellness", Label: "Health and wellness (grocery style)", Category: models.CategoryPersonalCare, Subsections: []string{
		"Vitamins and supplements",
		"Sports nutrition",
		"First aid and OTC meds",
		"Feminine care",
		"Adult care (incontinence)",
	}},
	{ID: "pharmacy", Label: "Pharmacy (drugstores, some groceries and big box)", Category: models.CategoryPersonalCare, Subsections: []string{
		"Prescription drop off and pickup",
		"Immunizations (where offered)",
		"Pharmacy waiting area",
		"Health screenings / clinic (some drugstores)",
	}},
	{ID: "personal_care_and_beauty", Label: "Personal care and beauty (especially drugstores)", Category: models.CategoryPersonalCare, Subsections: []string{
		"Skincare",
		"Hair care",
		"Cosmetics",
		"Deodorant and shaving",
		"Oral care",
		"Fragrance",
		"Nail care",
	}},
	{ID: "baby_and_family", Label: "Baby and family", Category: models.CategoryPersonalCare, Subsections: []string{
		"Diapers and wipes",
		"Baby food and formula",
		"Baby toiletries",
		"Kids health",
	}},
	{ID: "household_and_cleaning", Label: "Household and cleaning", Category: models.CategoryHousehold, Subsections: []string{
		"Laundry",
		"Dish and surface cleaners",
		"Paper towels and toilet paper",
		"Trash bags",
		"Air fresheners",
		"Pest control",
		"Light bulbs and small home utility",
	}},
	{ID: "pet", Label: "Pet", Category: models.CategoryPet, Subsections: []string{
		"Pet food",
		"Treats",
		"Litter and supplies",
	}},
	{ID: "home_goods_and_seasonal", Label: "Home goods and seasonal (big box and warehouse clubs)", Category: models.CategoryHousehold, Subsections: []string{
		"Kitchen and small appliances",
		"Cookware and storage containers",
		"Bedding and bath",
		"Home decor",
		"Holiday and seasonal items",
		"Patio and garden (seasonal)",
		"Grills and outdoor cooking (seasonal)",
	}},
	{ID: "office_and_school", Label: "Office and school (drugstores and big box)", Category: models.CategoryHousehold, Subsections: []string{
		"Stationery and office supplies",
		"School supplies",
		"Ink and paper (some stores)",
	}},
	{ID: "electronics_and_media", Label: "Electronics and media (big box, some drugstores)", Category: models.CategoryOther, Subsections: []string{
		"Headphones and cables",
		"Small electronics and accessories",
		"Batteries (sometimes here, sometimes at checkout)",
		"Gift cards (often near checkout)",
	}},
	{ID: "apparel", Label: "Apparel (warehouse clubs and big box)", Category: models.CategoryOther, Subsections: []string{
		"Basics (socks, underwear)",
		"Casual clothing",
		"Outerwear (seasonal)",
		"Shoes (some stores)",
	}},
	{ID: "automotive", Label: "Automotive (big box and warehouse clubs)", Category: models.CategoryHousehold, Subsections: []string{
		"Motor oil and fluids",
		"Wiper blades",
		"Car accessories",
		"Tires and tire center (warehouse clubs)",
	}},
	{ID: "sports_fitness_and_outdoors", Label: "Sports, fitness, and outdoors (big box and warehouse clubs)", Category: models.CategoryOther, Subsections: []string{
		"Fitness equipment and accessories",
		"Camping and outdoor gear",
		"Bikes (seasonal)",
	}},
	{ID: "books_cards_and_party", Label: "Books, cards, and party (drugstores, some groceries)", Category: models.CategoryOther, Subsections: []string{
		"Greeting cards",
		"Gift wrap and bags",
		"Party supplies",
		"Small books and magazines",
	}},
	{ID: "services_and_specialty_counters", Label: "Services and specialty counters (varies)", Category: models.CategoryOther, Subsections: []string{
		"Food court (warehouse clubs)",
		"Vision center (optical)",
		"Hearing aid center",
		"Travel services (some warehouse clubs)",
		"Money services (some stores)",
		"Key cutting (some big box)",
		"Coin counting (some groceries)",
	}},
	{ID: "checkout_exit", Label: "Checkout / exit", Category: models.CategorySnacks, Subsections: []string{
		"Registers / self checkout",
		"Impulse items",
		"Returns desk (sometimes near exit)",
		"Pickup lockers / online order pickup (some stores)",
	}},
}

var majorSectionsByID = func() map[string]*MajorSection {
	byID := make(map[string]*MajorSection, len(majorSections))
	for i := range majorSections {
		majorSections[i].Rank = i
		byID[majorSections[i].ID] = &majorSections[i]
	}
	return byID
}()

// MajorSections returns the scaffold in walk order
func MajorSections() []MajorSection {
	out := make([]MajorSection, len(majorSections))
	copy(out, majorSections)
	return out
}

// MajorSectionIDs returns the scaffold ids in walk order
func MajorSectionIDs() []string {
	ids := make([]string, len(majorSections))
	for i, s := range majorSections {
		ids[i] = s.ID
	}
	return ids
}

// LookupMajorSection finds a scaffold section by id
func LookupMajorSection(id string) (MajorSection, bool) {
	s, ok := majorSectionsByID[id]
	if !ok {
		return MajorSection{}, false
	}
	return *s, true
}

// PromptScaffold renders the scaffold as a numbered outline for the vision prompt
func PromptScaffold() string {
	blocks := make([]string, len(majorSections))
	for i, s := range majorSections {
		lines := []string{strconv.Itoa(i+1) + ". " + s.Label}
		for _, sub := range s.Subsections {
			lines = append(lines, "   - "+sub)
		}
		blocks[i] = strings.Join(lines, "\n")
	}
	return strings.Join(blocks, "\n\n")
}
