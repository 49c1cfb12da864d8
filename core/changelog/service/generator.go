package service

import (
	"context"
	"strings"

	"github.com/goto/salt/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goto/changelogger/internal/errors"
)

const (
	EntityGenerator = "changelog_generator"

	emptyDigest = "(no changed files)"
)

// SystemPrompt is the fixed directive sent with every generation request.
const SystemPrompt = `You are a technical writer producing a changelog for a software release.
Write in a clear, professional technical-writing tone. State every change declaratively; never hedge with words such as "may", "might", "possibly" or "seems".
Group the changes into the following sections, omitting sections without entries:
### ✨ Features
### 🐛 Bug Fixes
### ♻️ Refactoring
### 📝 Documentation
### 🔒 Security
### ✅ Tests
Use short bullet points under each section. Do not add a top-level document heading and do not repeat these instructions.`

var generationFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "changelogger_generation_failures_total",
	Help: "errors returned by the text generation backend",
})

type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type ChangelogGenerator struct {
	backend TextGenerator
	logger  log.Logger
}

func NewChangelogGenerator(logger log.Logger, backend TextGenerator) *ChangelogGenerator {
	return &ChangelogGenerator{
		backend: backend,
		logger:  logger,
	}
}

// Generate asks the backend for a changelog describing the digest.
func (g *ChangelogGenerator) Generate(ctx context.Context, digest string) (string, error) {
	if strings.TrimSpace(digest) == "" {
		digest = emptyDigest
	}
	userPrompt := "Generate a changelog for the following changes (file: additions, removals):\n\n" + digest
	return g.generate(ctx, userPrompt)
}

// GenerateFromDiff asks the backend for a changelog describing a single unified diff.
func (g *ChangelogGenerator) GenerateFromDiff(ctx context.Context, path, unifiedDiff string) (string, error) {
	userPrompt := "Generate a changelog for the following diff of " + path + ":\n\n" + unifiedDiff
	return g.generate(ctx, userPrompt)
}

func (g *ChangelogGenerator) generate(ctx context.Context, userPrompt string) (string, error) {
	text, err := g.backend.Generate(ctx, SystemPrompt, userPrompt)
	if err != nil {
		generationFailures.Inc()
		g.logger.Error("changelog generation failed", "error", err.Error())
		return "", errors.Wrap(EntityGenerator, "unable to generate changelog", err)
	}

	return stripTopLevelHeadings(text), nil
}

// stripTopLevelHeadings drops "# " heading lines starting at column zero. Sub headings, indented
// lines and lines inside fenced code blocks are kept.
func stripTopLevelHeadings(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
