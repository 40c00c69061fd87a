package textscrape

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// newConverter builds the reusable, goroutine-safe converter behind the
// markdown output format:
//
//   - base plugin: strips script, style, head, meta and comments.
//   - commonmark plugin: standard Markdown rendering.
//   - table plugin: interlinear sections are laid out as tables, so table
//     structure has to survive the conversion; minimal cell padding keeps
//     the rows readable without aligning every column.
func newConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// toMarkdown converts a section's HTML fragment to Markdown. The domain
// resolves relative URLs in links and images so the output stands alone.
func toMarkdown(conv *converter.Converter, fragment, domain string) (string, error) {
	return conv.ConvertString(fragment, converter.WithDomain(domain))
}
