package answer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// BuildContext assembles retrieved passages into the prompt context block.
// Each passage keeps its attribution header so the generator can cite it;
// ordering follows match rank.
func BuildContext(matches []domain.Match) string {
	blocks := make([]string, len(matches))
	for i, m := range matches {
		source := m.Source
		if source == "" {
			source = "unknown"
		}
		blocks[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, source, m.Content)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
