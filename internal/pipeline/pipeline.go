// Package pipeline sequences a full translation run: parse the input
// document, collect its string leaves, shield protected substrings, push
// the whole list through the batch translator, restore and tidy each
// result, and write everything back into a clone of the original tree.
//
// A run either completes fully or aborts entirely; no partial output file
// is ever written.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/retznutz/SharpTranslate/internal/config"
	"github.com/retznutz/SharpTranslate/internal/doctree"
	"github.com/retznutz/SharpTranslate/internal/textutil"
	"github.com/retznutz/SharpTranslate/internal/tokenizer"
	"github.com/retznutz/SharpTranslate/internal/translator"
)

// ErrCountMismatch reports that the number of translated results no longer
// matches the number of collected leaves. It indicates a broken pipeline
// invariant, never a recoverable service hiccup.
var ErrCountMismatch = errors.New("result count does not match leaf count")

// ErrStructure reports that a collected path failed to resolve during
// write-back, meaning the tree changed shape mid-run.
var ErrStructure = errors.New("document structure changed during translation")

// Run executes one translation of cfg.InputPath into cfg.OutputPath using
// the given collaborator.
func Run(ctx context.Context, cfg config.Config, client translator.Client) error {
	data, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	tree, err := doctree.Parse(data)
	if err != nil {
		return err
	}

	leaves := doctree.CollectLeaves(tree)
	if len(leaves) == 0 {
		log.Info().Str("input", cfg.InputPath).Msg("No string leaves, writing document unchanged")
		return writeTree(tree, cfg.OutputPath)
	}

	log.Info().
		Int("leaves", len(leaves)).
		Str("language", cfg.TargetLanguage).
		Str("model", cfg.Model).
		Msg("Starting translation")

	tok, err := tokenizer.New(cfg.ProtectedTerms)
	if err != nil {
		return err
	}

	// Each leaf gets its own token map; tokens are never shared across
	// leaves.
	tokenized := make([]string, len(leaves))
	maps := make([]tokenizer.TokenMap, len(leaves))
	for i, leaf := range leaves {
		tokenized[i], maps[i] = tok.Tokenize(leaf.Text)
	}

	engine := translator.NewEngine(client, cfg.BatchSize, cfg.MaxRetries, cfg.BatchDelay)
	results, err := engine.Translate(ctx, tokenized)
	if err != nil {
		return err
	}
	if len(results) != len(leaves) {
		return fmt.Errorf("%w: got %d, expected %d", ErrCountMismatch, len(results), len(leaves))
	}

	out := tree.Clone()
	for i, leaf := range leaves {
		text := textutil.Tidy(tokenizer.Detokenize(results[i], maps[i]))
		if err := doctree.WriteString(out, leaf.Path, text); err != nil {
			return fmt.Errorf("%w: %v", ErrStructure, err)
		}
	}

	if got := len(doctree.CollectLeaves(out)); got != len(leaves) {
		return fmt.Errorf("%w: output has %d leaves, input had %d", ErrCountMismatch, got, len(leaves))
	}

	if err := writeTree(out, cfg.OutputPath); err != nil {
		return err
	}

	log.Info().
		Int("leaves", len(leaves)).
		Str("output", cfg.OutputPath).
		Msg("Translation complete")
	return nil
}

func writeTree(tree *doctree.Node, path string) error {
	data, err := tree.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
