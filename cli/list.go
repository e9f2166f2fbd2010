package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/richinex/aide/llm"
)

// ListProviders prints the configured providers, marking the default.
func (a *App) ListProviders() {
	def := a.registry.DefaultProvider()

	fmt.Fprintln(a.out, "Available providers:")
	for _, p := range a.registry.AvailableProviders() {
		marker := " "
		if p.String() == def {
			marker = "*"
		}
		model := a.settings.AI.ModelFor(p.String())
		if model == "" {
			model = p.DefaultModel()
		}
		fmt.Fprintf(a.out, " %s %-10s %s\n", marker, p.String(), model)
	}

	if _, err := llm.ParseProviderType(def); err != nil {
		fmt.Fprintf(a.out, "\nWarning: default provider %q is not supported\n", def)
	}
}

// ListConversations prints stored conversations, most recent first.
func (a *App) ListConversations(ctx context.Context) error {
	convs, err := a.store.ListConversations(ctx)
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Fprintln(a.out, "No conversations.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tMESSAGES\tUPDATED\tTITLE")
	for _, c := range convs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			c.ID, c.Provider, c.MessageCount, c.UpdatedAt.Local().Format(time.DateTime), c.Title)
	}
	return w.Flush()
}

// ListDocuments prints stored document analyses, most recent first.
func (a *App) ListDocuments(ctx context.Context) error {
	docs, err := a.store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(a.out, "No documents.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tSIZE\tPROVIDER\tANALYZED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			d.ID, d.Filename, d.FileSize, d.Provider, d.AnalyzedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

// DeleteConversation removes a stored conversation.
func (a *App) DeleteConversation(ctx context.Context, id string) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted conversation %s\n", id)
	return nil
}
