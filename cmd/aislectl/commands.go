package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/models"
	"github.com/foxxcyber/aisle-list/internal/ocr"
	"github.com/foxxcyber/aisle-list/internal/services"
)

var (
	exportOutput string
	exportTitle  string
	magicAPIKey  string
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse typed list text (file or stdin) into an ordered checklist",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Read a photographed list with OCR",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

var magicCmd = &cobra.Command{
	Use:   "magic <image>",
	Short: "Read a photographed list with the vision model",
	Args:  cobra.ExactArgs(1),
	RunE:  runMagic,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write typed list text as an XLSX checklist",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var scaleCmd = &cobra.Command{
	Use:   "scale <quantity> <multiplier>",
	Short: "Multiply the numbers in a quantity",
	Args:  cobra.ExactArgs(2),
	RunE:  runScale,
}

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Print the store section scaffold",
	Args:  cobra.NoArgs,
	RunE:  runScaffold,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "checklist.xlsx", "output file")
	exportCmd.Flags().StringVar(&exportTitle, "title", "Shopping List", "checklist title")
	magicCmd.Flags().StringVar(&magicAPIKey, "api-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
}

func runParse(cmd *cobra.Command, args []string) error {
	builder, _, err := newBuilder()
	if err != nil {
		return err
	}
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	checklist := builder.BuildFromText(text, models.SourceManual)
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), checklist)
	}
	printSections(cmd.OutOrStdout(), checklist.Sections)
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	builder, _, err := newBuilder()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	engine, err := ocr.NewEngine(cfg.OCRLanguage)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.ScanTimeout)
	defer cancel()

	pipeline := services.NewScanPipeline(engine, builder, logger)
	result, err := pipeline.ProcessImage(ctx, data, func(p models.PipelineProgress) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%3.0f%% %s\n", p.Progress*100, p.Label)
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "OCR confidence %.0f%%, %d attempt(s)\n", result.OCRConfidence*100, len(result.Attempts))
	if result.SuggestMagicMode {
		fmt.Fprintln(out, "The photo was hard to read. Try `aislectl magic`.")
	}
	printSections(out, result.Sections)
	return nil
}

func runMagic(cmd *cobra.Command, args []string) error {
	builder, rules, err := newBuilder()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	prepared, err := services.PrepareImage(data)
	if err != nil {
		return err
	}

	key := magicAPIKey
	if key == "" {
		key = cfg.OpenAIAPIKey
	}
	if !services.IsLikelyOpenAIKey(key) {
		return services.ErrVisionKeyRequired
	}

	client, err := services.NewVisionClient(cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.VisionTimeout, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	resp, err := client.Parse(ctx, prepared.Normalized, "image/jpeg", key)
	if err != nil {
		return err
	}

	mapper := services.NewMagicMapper(builder.Parser(), builder.Categorizer(), rules)
	checklist := builder.Finalize(services.DedupeItems(mapper.MapItems(resp.Items)))
	logger.Debug("magic.mapped", zap.Int("items", len(checklist.Items)), zap.Strings("warnings", resp.Warnings))

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), models.MagicScanResult{
			ListTitle: resp.ListTitle,
			Items:     checklist.Items,
			Sections:  checklist.Sections,
			Warnings:  resp.Warnings,
			ImageHash: prepared.Hash,
		})
	}
	out := cmd.OutOrStdout()
	if resp.ListTitle != nil {
		fmt.Fprintln(out, *resp.ListTitle)
	}
	for _, w := range resp.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
	printSections(out, checklist.Sections)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	builder, _, err := newBuilder()
	if err != nil {
		return err
	}
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	checklist := builder.BuildFromText(text, models.SourceManual)
	exporter := services.NewChecklistExporter(builder.Ordering(), logger)
	data, err := exporter.ExportXLSX(exportTitle, checklist.Items)
	if err != nil {
		return err
	}

	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d item(s) to %s\n", len(checklist.Items), exportOutput)
	return nil
}

func runScale(cmd *cobra.Command, args []string) error {
	multiplier, err := strconv.ParseFloat(args[1], 64)
	if err != nil || multiplier <= 0 {
		return fmt.Errorf("invalid multiplier %q", args[1])
	}
	quantity := args[0]
	scaled := services.ScaleQuantity(&quantity, multiplier)
	if scaled == nil {
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), *scaled)
	return nil
}

func runScaffold(cmd *cobra.Command, args []string) error {
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), services.MajorSections())
	}
	fmt.Fprint(cmd.OutOrStdout(), services.PromptScaffold())
	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}

func printSections(w io.Writer, sections []models.Section) {
	if len(sections) == 0 {
		fmt.Fprintln(w, "(no items)")
		return
	}
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", section.Title, section.RemainingCount)
		for _, item := range section.Items {
			fmt.Fprintf(w, "  [%s] %s\n", checkMark(item.Checked), itemLine(item))
		}
	}
}

func itemLine(item models.ShoppingItem) string {
	var b strings.Builder
	if item.Quantity != nil {
		b.WriteString(*item.Quantity)
		b.WriteString(" ")
	}
	b.WriteString(item.CanonicalName)
	if item.Notes != nil {
		b.WriteString(" (")
		b.WriteString(*item.Notes)
		b.WriteString(")")
	}
	return b.String()
}

func checkMark(checked bool) string {
	if checked {
		return "x"
	}
	return " "
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
