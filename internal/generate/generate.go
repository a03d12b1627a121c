package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"podforge/internal/config"
	"podforge/internal/episode"
	"podforge/internal/logging"
	"podforge/internal/retrieval"
	"podforge/internal/services"
	"podforge/internal/services/anthropic"
)

// Artifact type names, generated in this order.
const (
	ArtifactOutline    = "outline"
	ArtifactScript     = "script"
	ArtifactShorts     = "shorts"
	ArtifactVisuals    = "visuals"
	ArtifactQA         = "qa"
	ArtifactPublishing = "publishing"
)

// ArtifactTypes lists every artifact type in generation order. Script,
// shorts, and visuals depend on the outline; qa depends on the script;
// publishing depends on both.
var ArtifactTypes = []string{
	ArtifactOutline,
	ArtifactScript,
	ArtifactShorts,
	ArtifactVisuals,
	ArtifactQA,
	ArtifactPublishing,
}

// ArtifactFilenames maps artifact types to their output filenames under the
// episode output directory.
var ArtifactFilenames = map[string]string{
	ArtifactOutline:    "outline.tr.md",
	ArtifactScript:     "script.long.tr.md",
	ArtifactShorts:     "shorts.tr.json",
	ArtifactVisuals:    "visuals.json",
	ArtifactQA:         "qa.json",
	ArtifactPublishing: "publishing_pack.json",
}

// Result summarizes one generation pass over an episode.
type Result struct {
	EpisodeID    string
	OutputDir    string
	Artifacts    []string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Generator produces the Turkish artifact set for chunked episodes.
type Generator struct {
	store  *episode.Store
	client *anthropic.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewGenerator wires a generator from the store, completion client, and
// configuration.
func NewGenerator(store *episode.Store, client *anthropic.Client, cfg *config.Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{store: store, client: client, cfg: cfg, logger: logger}
}

// Generate produces all six artifacts for an episode sequentially. Existing
// artifact files are reused at zero cost unless force is set. The episode
// must have reached chunked status (or already be generated) unless force.
func (g *Generator) Generate(ctx context.Context, episodeID string, force bool) (*Result, error) {
	ep, err := g.store.GetByID(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if !force && ep.Status != episode.StatusChunked && ep.Status != episode.StatusGenerated {
		return nil, services.Wrap(services.ErrPrecondition, "generate", "check_status",
			fmt.Sprintf("episode %s is %q, expected %q", episodeID, ep.Status, episode.StatusChunked), nil)
	}

	outputDir := g.cfg.EpisodeOutputDir(episodeID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	topK := g.cfg.Retrieval.TopK
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	queryTerms := retrieval.BuildQueryTerms(ep.Title)
	chunks, err := retrieval.Retrieve(ctx, g.store, episodeID, queryTerms, topK)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, services.Wrap(services.ErrPrecondition, "generate", "retrieve_chunks",
			fmt.Sprintf("no chunks found for episode %s", episodeID), nil)
	}
	chunksText := retrieval.FormatForPrompt(chunks, episodeID)
	chunkIDs := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunkIDs[i] = chunk.ChunkID
	}

	result := &Result{EpisodeID: episodeID, OutputDir: outputDir}
	state := artifactState{
		episode:    ep,
		chunks:     chunks,
		chunksText: chunksText,
		chunkIDs:   chunkIDs,
		queryTerms: queryTerms,
		outputDir:  outputDir,
		topK:       topK,
		force:      force,
	}

	for _, artifactType := range ArtifactTypes {
		text, err := g.generateArtifact(ctx, artifactType, &state, result)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", artifactType, err)
		}
		switch artifactType {
		case ArtifactOutline:
			state.outlineText = text
		case ArtifactScript:
			state.scriptText = text
		}
	}

	g.logger.Info("generated artifacts",
		slog.String("episode_id", episodeID),
		slog.Int("artifacts", len(result.Artifacts)),
		slog.Float64("cost_usd", result.CostUSD))
	return result, nil
}

type artifactState struct {
	episode     *episode.Episode
	chunks      []retrieval.RankedChunk
	chunksText  string
	chunkIDs    []string
	queryTerms  []string
	outputDir   string
	topK        int
	force       bool
	outlineText string
	scriptText  string
}

func (g *Generator) generateArtifact(ctx context.Context, artifactType string, state *artifactState, result *Result) (string, error) {
	outputPath := filepath.Join(state.outputDir, ArtifactFilenames[artifactType])

	// Reuse an existing file at zero cost unless regeneration is forced.
	if !state.force {
		if existing, err := os.ReadFile(outputPath); err == nil {
			g.logger.Info("artifact exists, skipping",
				slog.String("episode_id", state.episode.ID),
				slog.String("artifact", artifactType))
			result.Artifacts = append(result.Artifacts, outputPath)
			return string(existing), nil
		}
	}

	if state.force {
		if prior, err := g.store.ArtifactByType(ctx, state.episode.ID, artifactType); err == nil && prior != nil {
			g.logger.Info("regenerating artifact",
				slog.String("episode_id", state.episode.ID),
				slog.String("artifact", artifactType),
				slog.String("superseded_prompt_hash", prior.PromptHash))
		}
	}

	prompt, err := buildUserPrompt(artifactType, state.episode.Title, state.episode.ID,
		state.chunksText, state.outlineText, state.scriptText)
	if err != nil {
		return "", err
	}
	promptHash := anthropic.PromptHash(prompt, g.cfg.LLM.Model, g.cfg.LLM.Temperature, state.chunkIDs)

	req := anthropic.Request{System: SystemPrompt, User: prompt}
	if g.cfg.LLM.DryRun {
		req.DryRunPath = filepath.Join(state.outputDir, "dry_run_"+artifactType+".json")
	}
	resp, err := g.client.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(outputPath, []byte(resp.Text), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	snapshotPath, err := retrieval.SaveSnapshot(state.chunks, artifactType, state.outputDir, state.queryTerms, state.topK)
	if err != nil {
		return "", err
	}
	if err := g.store.RecordArtifact(ctx, &episode.ContentArtifact{
		EpisodeID:    state.episode.ID,
		ArtifactType: artifactType,
		Path:         outputPath,
		PromptHash:   promptHash,
		Model:        resp.Model,
		SnapshotPath: snapshotPath,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD,
	}); err != nil {
		return "", err
	}

	result.Artifacts = append(result.Artifacts, outputPath)
	result.InputTokens += resp.InputTokens
	result.OutputTokens += resp.OutputTokens
	result.CostUSD += resp.CostUSD
	return resp.Text, nil
}
