package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/labelscan/internal/analyzer"
	"github.com/nao1215/labelscan/internal/model"
)

// fakeRecognizer returns fixed text or an error.
type fakeRecognizer struct {
	text  string
	err   error
	paths []string
}

func (f *fakeRecognizer) Recognize(_ context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	return f.text, f.err
}

// fakeEnhancer returns a fixed enhancement.
type fakeEnhancer struct {
	result analyzer.Enhancement
}

func (f fakeEnhancer) Enhance(context.Context, []string, string) analyzer.Enhancement {
	return f.result
}

// memoryStore records saved scans.
type memoryStore struct {
	mu    sync.Mutex
	scans []*model.Scan
	err   error
}

func (m *memoryStore) SaveScan(_ context.Context, scan *model.Scan) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, scan)
	return nil
}

func TestOCRStep(t *testing.T) {
	t.Parallel()

	t.Run("text scans pass through", func(t *testing.T) {
		t.Parallel()

		rec := &fakeRecognizer{text: "ignored"}
		report := NewReport(TextInput("Sugar", ""))

		if err := NewOCRStep(rec).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rec.paths) != 0 {
			t.Error("recognizer must not run for text scans")
		}
		if report.Scan.RawText != "Sugar" {
			t.Errorf("raw text changed: %q", report.Scan.RawText)
		}
	})

	t.Run("image scans get recognized text and metadata", func(t *testing.T) {
		t.Parallel()

		captured := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
		rec := &fakeRecognizer{text: "Sugar, Salt"}
		step := NewOCRStep(rec, WithImageMetaReader(func(string) (*model.ImageMeta, error) {
			return &model.ImageMeta{CapturedAt: &captured, CameraMake: "Pixel"}, nil
		}))

		report := NewReport(ImageInput("/tmp/label.jpg", ""))
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Scan.RawText != "Sugar, Salt" {
			t.Errorf("raw text = %q", report.Scan.RawText)
		}
		if len(rec.paths) != 1 || rec.paths[0] != "/tmp/label.jpg" {
			t.Errorf("recognizer called with %v", rec.paths)
		}
		if report.ImageMeta == nil || report.ImageMeta.CameraMake != "Pixel" {
			t.Errorf("unexpected image meta %+v", report.ImageMeta)
		}
	})

	t.Run("metadata errors are not fatal", func(t *testing.T) {
		t.Parallel()

		step := NewOCRStep(&fakeRecognizer{text: "Salt"},
			WithOCRLogger(discardLogger()),
			WithImageMetaReader(func(string) (*model.ImageMeta, error) {
				return nil, errors.New("corrupt exif")
			}))

		report := NewReport(ImageInput("/tmp/label.jpg", ""))
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.ImageMeta != nil {
			t.Error("expected no image meta")
		}
	})

	t.Run("recognizer failure fails the step", func(t *testing.T) {
		t.Parallel()

		ocrErr := errors.New("tesseract exploded")
		step := NewOCRStep(&fakeRecognizer{err: ocrErr}, WithImageMetaReader(nil))

		err := step.Do(context.Background(), NewReport(ImageInput("/tmp/label.jpg", "")))
		if !errors.Is(err, ocrErr) {
			t.Errorf("expected wrapped recognizer error, got %v", err)
		}
	})

	t.Run("image scan without path", func(t *testing.T) {
		t.Parallel()

		report := NewReport(Input{Source: model.SourceImage})
		err := NewOCRStep(&fakeRecognizer{}).Do(context.Background(), report)
		if !errors.Is(err, ErrNoImagePath) {
			t.Errorf("expected ErrNoImagePath, got %v", err)
		}
	})
}

func TestNormalizeStep(t *testing.T) {
	t.Parallel()

	report := NewReport(TextInput("Contains: Sugar, SALT (iodized), sugar.", ""))
	step := NewNormalizeStep()

	if step.Name() != "normalize" {
		t.Errorf("unexpected name %q", step.Name())
	}
	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := report.Scan.CleanedIngredients
	if len(got) != 2 || got[1] != "salt" {
		t.Errorf("unexpected tokens %v", got)
	}
	if report.Fingerprint != model.Fingerprint(got) {
		t.Errorf("fingerprint not set from tokens")
	}
}

func TestAnalyzeStep(t *testing.T) {
	t.Parallel()

	prepare := func(t *testing.T, text, credential string) *model.ScanReport {
		t.Helper()
		report := NewReport(TextInput(text, credential))
		if err := NewNormalizeStep().Do(context.Background(), report); err != nil {
			t.Fatalf("normalize: %v", err)
		}
		return report
	}

	t.Run("no credential uses the rule tables", func(t *testing.T) {
		t.Parallel()

		report := prepare(t, "Sugar, E621", "")
		if err := NewAnalyzeStep(nil).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Engine != model.EngineRules {
			t.Errorf("engine = %q", report.Engine)
		}
		want := analyzer.Classify(report.Scan.CleanedIngredients)
		if report.Scan.Analysis.HealthScore != want.HealthScore {
			t.Errorf("score = %d, want %d", report.Scan.Analysis.HealthScore, want.HealthScore)
		}
	})

	t.Run("failed enhancement falls back", func(t *testing.T) {
		t.Parallel()

		reason := errors.New("upstream 503")
		service := analyzer.NewService(
			analyzer.WithEnhancer(fakeEnhancer{result: analyzer.Failed(reason)}),
			analyzer.WithLogger(discardLogger()),
		)

		report := prepare(t, "Sugar, E621", "sk-test-credential")
		if err := NewAnalyzeStep(service).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Engine != model.EngineFallback {
			t.Errorf("engine = %q", report.Engine)
		}
		if report.FallbackReason != reason.Error() {
			t.Errorf("fallback reason = %q", report.FallbackReason)
		}
	})

	t.Run("successful enhancement is rescored", func(t *testing.T) {
		t.Parallel()

		enhanced := model.AnalysisResult{
			HealthScore: 1,
			Summary:     "model summary",
			Breakdown: []model.BreakdownItem{
				{Ingredient: "sugar", Classification: model.ClassificationHealthy, Severity: model.SeverityNone, Reason: "fine"},
			},
		}
		service := analyzer.NewService(analyzer.WithEnhancer(fakeEnhancer{result: analyzer.Enhanced(enhanced)}))

		report := prepare(t, "Sugar", "sk-test-credential")
		if err := NewAnalyzeStep(service).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Engine != model.EngineEnhanced || report.FallbackReason != "" {
			t.Errorf("engine = %q reason = %q", report.Engine, report.FallbackReason)
		}
		if report.Scan.Analysis.HealthScore != 100 {
			t.Errorf("expected rescored 100, got %d", report.Scan.Analysis.HealthScore)
		}
	})
}

func TestStoreStep(t *testing.T) {
	t.Parallel()

	t.Run("stores unsaved by default", func(t *testing.T) {
		t.Parallel()

		store := &memoryStore{}
		report := NewReport(TextInput("Sugar", ""))
		if err := NewStoreStep(store).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.scans) != 1 || store.scans[0].Saved {
			t.Errorf("unexpected stored scans %+v", store.scans)
		}
	})

	t.Run("marks saved with notes", func(t *testing.T) {
		t.Parallel()

		store := &memoryStore{}
		report := NewReport(TextInput("Sugar", ""))
		if err := NewStoreStep(store, WithSaved(true, "breakfast")).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.Scan.Saved || report.Scan.Notes() != "breakfast" {
			t.Errorf("scan not marked: saved=%v notes=%q", report.Scan.Saved, report.Scan.Notes())
		}
	})

	t.Run("store failure fails the step", func(t *testing.T) {
		t.Parallel()

		storeErr := errors.New("disk full")
		err := NewStoreStep(&memoryStore{err: storeErr}).Do(context.Background(), NewReport(TextInput("Sugar", "")))
		if !errors.Is(err, storeErr) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step layout", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			cfg  DefaultPipelineConfig
			want []string
		}{
			{"minimal", DefaultPipelineConfig{}, []string{"normalize", "analyze"}},
			{"with ocr", DefaultPipelineConfig{Recognizer: &fakeRecognizer{}}, []string{"ocr", "normalize", "analyze"}},
			{"with store", DefaultPipelineConfig{Store: &memoryStore{}}, []string{"normalize", "analyze", "store"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				names := DefaultPipeline(tt.cfg).StepNames()
				if len(names) != len(tt.want) {
					t.Fatalf("steps = %v, want %v", names, tt.want)
				}
				for i := range names {
					if names[i] != tt.want[i] {
						t.Errorf("steps = %v, want %v", names, tt.want)
					}
				}
			})
		}
	})

	t.Run("end to end image scan", func(t *testing.T) {
		t.Parallel()

		store := &memoryStore{}
		p := DefaultPipeline(DefaultPipelineConfig{
			Recognizer: &fakeRecognizer{text: "Water, Tartrazine"},
			Store:      store,
			Save:       true,
			Logger:     discardLogger(),
		})

		report := NewReport(ImageInput("/nonexistent/label.jpg", ""))
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := report.Scan.CleanedIngredients; len(got) != 2 || got[1] != "e102" {
			t.Errorf("unexpected tokens %v", got)
		}
		if report.Scan.Analysis.Count(model.ClassificationHarmful) != 1 {
			t.Errorf("expected one harmful item, got %+v", report.Scan.Analysis.Breakdown)
		}
		if len(store.scans) != 1 || !store.scans[0].Saved {
			t.Errorf("expected one saved scan, got %+v", store.scans)
		}
		if len(report.PerformedSteps) != 4 {
			t.Errorf("performed steps = %v", report.PerformedSteps)
		}
	})
}
