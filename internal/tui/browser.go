package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jasperwreed/campus-market/internal/models"
	"github.com/jasperwreed/campus-market/internal/search"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	localBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	remoteBadgeStyle = localBadgeStyle.Background(lipgloss.Color("#F25D94"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)

// CategorySource lists the categories offered for filtering.
type CategorySource interface {
	FetchCategories(ctx context.Context) ([]models.Category, error)
}

type Browser struct {
	searcher   *search.Searcher
	categories CategorySource
	logger     *zap.Logger
}

func NewBrowser(searcher *search.Searcher, categories CategorySource, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{searcher: searcher, categories: categories, logger: logger}
}

func (b *Browser) Run(ctx context.Context) error {
	m := newModel(ctx, b.searcher, b.categories, b.logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	b.searcher.Cancel()
	return err
}

type listItem struct {
	listing models.Listing
}

func (i listItem) FilterValue() string {
	return i.listing.Title
}

func (i listItem) Title() string {
	return i.listing.Title
}

func (i listItem) Description() string {
	desc := FormatPrice(i.listing)
	if i.listing.Category != "" {
		desc = fmt.Sprintf("%s | %s", desc, i.listing.Category)
	}
	if i.listing.SellerName != "" {
		desc = fmt.Sprintf("%s | %s", desc, i.listing.SellerName)
	}
	return desc
}

// FormatPrice renders a listing price the way the marketplace shows it.
func FormatPrice(l models.Listing) string {
	return "$" + l.Price.StringFixed(2)
}

// RenderDetail renders one listing as markdown through glamour. style is a
// glamour standard style such as "dark", "light" or "notty".
func RenderDetail(l models.Listing, width int, style string) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(detailMarkdown(l))
}

func detailMarkdown(l models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", l.Title)
	fmt.Fprintf(&b, "**Price:** %s\n\n", FormatPrice(l))
	category := l.Category
	if category == "" {
		category = "Uncategorized"
	}
	fmt.Fprintf(&b, "**Category:** %s\n\n", category)
	if l.SellerName != "" {
		fmt.Fprintf(&b, "**Seller:** %s\n\n", l.SellerName)
	}
	if l.CreatedAt != nil {
		fmt.Fprintf(&b, "**Listed:** %s\n\n", l.CreatedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "**ID:** %s\n\n", l.ID)
	if d := strings.TrimSpace(l.Description); d != "" {
		b.WriteString("---\n\n")
		b.WriteString(d)
		b.WriteString("\n\n")
	}
	if len(l.Images) > 0 {
		b.WriteString("## Photos\n\n")
		for _, img := range l.Images {
			fmt.Fprintf(&b, "- %s\n", img)
		}
	}
	return b.String()
}
