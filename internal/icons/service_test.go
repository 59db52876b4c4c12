package icons

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/retry"
)

type fakeSource struct {
	icons map[string][]byte // by query
	err   error
}

func (f *fakeSource) Fetch(ctx context.Context, credential, query string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.icons[query]
	if !ok {
		return nil, ErrNoIcon
	}
	return data, nil
}

func writeDeck(t *testing.T, dir string, deck *domain.Deck) string {
	t.Helper()
	path := filepath.Join(dir, "slides.json")
	require.NoError(t, domain.SaveDeck(path, deck))
	return path
}

func newTestService(source Source) *Service {
	rotator, _ := retry.NewRotator([]string{"key:secret"})
	return New(source, rotator, NewQueryGenerator(nil, nil), 2, nil)
}

func TestService_FetchAll_WritesIconPerSlide(t *testing.T) {
	root := t.TempDir()
	deck := &domain.Deck{
		TitleSlide: domain.TitleSlide{Title: "Kubernetes Basics", Subtitle: "Intro"},
		ContentSlides: []domain.SlideSpec{
			{Title: "Cluster Architecture"},
			{Title: "Scheduling Workloads"},
		},
	}
	deckPath := writeDeck(t, root, deck)
	iconsDir := filepath.Join(root, "icons")

	source := &fakeSource{icons: map[string][]byte{
		"kubernetes": []byte("icon-k8s"),
		"cluster":    []byte("icon-cluster"),
		"scheduling": []byte("icon-sched"),
	}}
	s := newTestService(source)

	require.NoError(t, s.FetchAll(context.Background(), deckPath, iconsDir))

	title, err := os.ReadFile(filepath.Join(iconsDir, "title.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("icon-k8s"), title)

	one, err := os.ReadFile(filepath.Join(iconsDir, "slide_01.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("icon-cluster"), one)

	two, err := os.ReadFile(filepath.Join(iconsDir, "slide_02.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("icon-sched"), two)
}

func TestService_FetchAll_PlaceholderOnTotalMiss(t *testing.T) {
	root := t.TempDir()
	deck := &domain.Deck{
		TitleSlide:    domain.TitleSlide{Title: "Obscure Topic", Subtitle: ""},
		ContentSlides: []domain.SlideSpec{{Title: "Nothing Matches"}},
	}
	deckPath := writeDeck(t, root, deck)
	iconsDir := filepath.Join(root, "icons")

	s := newTestService(&fakeSource{icons: map[string][]byte{}})
	require.NoError(t, s.FetchAll(context.Background(), deckPath, iconsDir), "content misses never fail the stage")

	for _, name := range []string{"title.png", "slide_01.png"} {
		data, err := os.ReadFile(filepath.Join(iconsDir, name))
		require.NoError(t, err, "placeholder written for %s", name)
		assert.NotEmpty(t, data)
	}
}

func TestService_FetchAll_PlaceholderIsDeterministic(t *testing.T) {
	assert.Equal(t, placeholderPNG("growth"), placeholderPNG("growth"))
	assert.NotEqual(t, placeholderPNG("growth"), placeholderPNG("decline"))
}

func TestService_FetchAll_KeepsExistingIcons(t *testing.T) {
	root := t.TempDir()
	deck := &domain.Deck{
		TitleSlide:    domain.TitleSlide{Title: "Topic", Subtitle: ""},
		ContentSlides: []domain.SlideSpec{{Title: "Slide"}},
	}
	deckPath := writeDeck(t, root, deck)
	iconsDir := filepath.Join(root, "icons")
	require.NoError(t, os.MkdirAll(iconsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(iconsDir, "title.png"), []byte("existing"), 0o644))

	source := &fakeSource{icons: map[string][]byte{"topic": []byte("fresh"), "slide": []byte("fresh")}}
	s := newTestService(source)
	require.NoError(t, s.FetchAll(context.Background(), deckPath, iconsDir))

	data, err := os.ReadFile(filepath.Join(iconsDir, "title.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("existing"), data, "cached icons are not refetched")
}

func TestService_FetchAll_ExplicitQueryPreferred(t *testing.T) {
	root := t.TempDir()
	deck := &domain.Deck{
		TitleSlide:    domain.TitleSlide{Title: "Topic", Subtitle: ""},
		ContentSlides: []domain.SlideSpec{{Title: "Revenue Growth", IconQuery: "chart"}},
	}
	deckPath := writeDeck(t, root, deck)
	iconsDir := filepath.Join(root, "icons")

	source := &fakeSource{icons: map[string][]byte{
		"topic": []byte("t"),
		"chart": []byte("chart-icon"),
	}}
	s := newTestService(source)
	require.NoError(t, s.FetchAll(context.Background(), deckPath, iconsDir))

	data, err := os.ReadFile(filepath.Join(iconsDir, "slide_01.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("chart-icon"), data)
}

func TestService_FetchAll_TransportErrorDegradesToPlaceholder(t *testing.T) {
	root := t.TempDir()
	deck := &domain.Deck{
		TitleSlide:    domain.TitleSlide{Title: "Topic", Subtitle: ""},
		ContentSlides: []domain.SlideSpec{{Title: "Slide"}},
	}
	deckPath := writeDeck(t, root, deck)
	iconsDir := filepath.Join(root, "icons")

	s := newTestService(&fakeSource{err: errors.New("connection reset")})
	require.NoError(t, s.FetchAll(context.Background(), deckPath, iconsDir))

	data, err := os.ReadFile(filepath.Join(iconsDir, "slide_01.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestSanitizeQuery(t *testing.T) {
	assert.Equal(t, "rocket launch", sanitizeQuery("  Rocket Launch \n", nil))
	assert.Equal(t, "", sanitizeQuery("a query with far too many words", nil))
	assert.Equal(t, "", sanitizeQuery("rocket", []string{"rocket"}), "avoided queries are rejected")
	assert.Equal(t, "growth", sanitizeQuery(`"growth"`, nil))
}

func TestTitleQuery(t *testing.T) {
	assert.Equal(t, "revenue", titleQuery("The Revenue Outlook", nil))
	assert.Equal(t, "outlook", titleQuery("The Revenue Outlook", []string{"revenue"}))
	assert.Equal(t, "idea", titleQuery("Of The And", nil), "all stop words falls back to a generic query")
}
