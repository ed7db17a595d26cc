package importer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// Monitor renders human-readable progress and reports from checkpoint state.
// It never touches the live run; everything it shows comes from the last
// durable snapshot, so it works from a separate process mid-run or after a
// crash.
type Monitor struct {
	checkpoints *CheckpointStore
}

// NewMonitor creates a Monitor over a checkpoint store.
func NewMonitor(checkpoints *CheckpointStore) *Monitor {
	return &Monitor{checkpoints: checkpoints}
}

// DisplayStatus writes a progress snapshot to w. A missing checkpoint is not
// an error; it prints a hint instead.
func (m *Monitor) DisplayStatus(w io.Writer) error {
	state, err := m.checkpoints.Load()
	if err != nil {
		return fmt.Errorf("failed to load import state: %w", err)
	}
	if state == nil {
		fmt.Fprintln(w, "No import has been run yet.")
		return nil
	}

	fmt.Fprintf(w, "Import %s\n", state.ID)
	fmt.Fprintf(w, "Status: %s (%s)\n", state.Status, state.Phase)
	fmt.Fprintf(w, "Progress: %s %d/%d batches\n", progressBar(state.Batch.Current, state.Batch.Total, 30), state.Batch.Current, state.Batch.Total)
	fmt.Fprintf(w, "Records: %d processed, %d failed\n", state.Batch.Processed, state.Batch.Failed)

	st := state.Stats
	fmt.Fprintf(w, "Products: created %d, updated %d, skipped %d\n", st.ProductsCreated, st.ProductsUpdated, st.ProductsSkipped)
	fmt.Fprintf(w, "Variants: groups %d, options %d, created %d, skipped %d\n",
		st.VariantGroupsCreated, st.VariantOptionsCreated, st.VariantsCreated, st.VariantsSkipped)
	fmt.Fprintf(w, "Specs:    %d imported\n", st.SpecsImported)
	fmt.Fprintf(w, "Images:   %d downloaded, %d failed\n", st.ImagesDownloaded, st.ImagesFailed)

	elapsed := state.UpdatedAt.Sub(state.StartedAt).Round(time.Second)
	fmt.Fprintf(w, "Elapsed: %s", elapsed)
	if elapsed > 0 && state.Batch.Processed > 0 {
		rate := float64(state.Batch.Processed) / elapsed.Seconds()
		fmt.Fprintf(w, " (%.1f records/s)", rate)
	}
	fmt.Fprintln(w)

	if state.EstimatedCompletion != nil && !state.IsTerminal() {
		fmt.Fprintf(w, "Estimated completion: %s\n", state.EstimatedCompletion.Format(time.RFC3339))
	}

	if len(state.Errors) > 0 {
		fmt.Fprintf(w, "Errors: %d (%s)\n", len(state.Errors), summarizeErrorKinds(state))
		for _, e := range recentErrors(state, 3) {
			fmt.Fprintf(w, "  last: [%s] %s: %s\n", e.Kind, e.SKU, e.Message)
		}
	}
	return nil
}

// recentErrors returns up to n of the newest recorded errors.
func recentErrors(state *models.ImportState, n int) []models.ImportError {
	if len(state.Errors) <= n {
		return state.Errors
	}
	return state.Errors[len(state.Errors)-n:]
}

// GenerateReport writes the full post-run report to w, including stats,
// validation counts, and the grouped error detail.
func (m *Monitor) GenerateReport(w io.Writer) error {
	state, err := m.checkpoints.Load()
	if err != nil {
		return fmt.Errorf("failed to load import state: %w", err)
	}
	if state == nil {
		fmt.Fprintln(w, "No import has been run yet.")
		return nil
	}

	fmt.Fprintln(w, "=== Import Report ===")
	fmt.Fprintf(w, "Run:      %s\n", state.ID)
	fmt.Fprintf(w, "Outcome:  %s\n", outcome(state))
	fmt.Fprintf(w, "Started:  %s\n", state.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:  %s\n", state.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration: %s\n", state.UpdatedAt.Sub(state.StartedAt).Round(time.Second))
	fmt.Fprintf(w, "Batches:  %d/%d\n", state.Batch.Current, state.Batch.Total)
	fmt.Fprintln(w)

	st := state.Stats
	fmt.Fprintln(w, "Products:")
	fmt.Fprintf(w, "  created %d, updated %d, skipped %d\n", st.ProductsCreated, st.ProductsUpdated, st.ProductsSkipped)
	fmt.Fprintln(w, "Variants:")
	fmt.Fprintf(w, "  groups %d, options %d, variants created %d, skipped %d\n",
		st.VariantGroupsCreated, st.VariantOptionsCreated, st.VariantsCreated, st.VariantsSkipped)
	fmt.Fprintf(w, "Specs:    %d imported\n", st.SpecsImported)
	fmt.Fprintf(w, "Images:   %d downloaded, %d failed\n", st.ImagesDownloaded, st.ImagesFailed)

	if v := state.Validation; v != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Store validation:")
		fmt.Fprintf(w, "  products %d (%d simple, %d variable)\n", v.Products, v.SimpleProducts, v.VariableProducts)
		fmt.Fprintf(w, "  variant groups %d, options %d\n", v.VariantGroups, v.VariantOptions)
		fmt.Fprintf(w, "  product variants %d, selection links %d\n", v.ProductVariants, v.SelectionLinks)
		fmt.Fprintf(w, "  technical specs %d\n", v.TechnicalSpecs)
	}

	if len(state.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors (%d):\n", len(state.Errors))
		for _, kind := range errorKindOrder(state) {
			fmt.Fprintf(w, "  %s:\n", kind)
			for _, e := range state.Errors {
				if e.Kind == kind {
					fmt.Fprintf(w, "    %s: %s\n", e.SKU, e.Message)
				}
			}
		}
	}
	return nil
}

// outcome distinguishes a clean completion from one that carried per-record
// errors; both are terminal successes, unlike failed.
func outcome(state *models.ImportState) string {
	if state.Status == models.ImportStatusCompleted && len(state.Errors) > 0 {
		return fmt.Sprintf("completed with %d errors", len(state.Errors))
	}
	if state.Status == models.ImportStatusFailed {
		return fmt.Sprintf("failed (%s)", state.Phase)
	}
	return string(state.Status)
}

func summarizeErrorKinds(state *models.ImportState) string {
	counts := state.ErrorCountsByKind()
	parts := make([]string, 0, len(counts))
	for _, kind := range errorKindOrder(state) {
		parts = append(parts, fmt.Sprintf("%s: %d", kind, counts[kind]))
	}
	return strings.Join(parts, ", ")
}

// errorKindOrder returns the kinds present in the error list, sorted for
// stable output.
func errorKindOrder(state *models.ImportState) []models.ErrorKind {
	counts := state.ErrorCountsByKind()
	kinds := make([]models.ErrorKind, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// progressBar renders a fixed-width text bar, full when total is zero since
// an empty catalog has nothing left to do.
func progressBar(current, total, width int) string {
	filled := width
	if total > 0 {
		filled = current * width / total
		if filled > width {
			filled = width
		}
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
