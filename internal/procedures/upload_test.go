package procedures

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tubepilot/internal/mocks"
	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testLink = "https://youtu.be/abc123"

func newTestProcedures(t *testing.T) (*Procedures, *mocks.Transport) {
	t.Helper()
	transport := &mocks.Transport{}
	return New(timings.Fast(), transport, zaptest.NewLogger(t)), transport
}

// uploadPage scripts a composer that accepts the file, finishes uploading and
// publishes without complaint.
func uploadPage() *mocks.FakePage {
	return mocks.NewFakePage().
		Show(
			selectors.SelectFilesButton, selectors.CloseButton, selectors.UploadComplete,
			selectors.TitleBox, selectors.DescriptionBox,
			selectors.MadeForKids, selectors.NotMadeForKids,
			selectors.ShowMoreToggle, selectors.AdvancedSection, selectors.TagsInput,
			selectors.NextButton, selectors.PublishButton, selectors.SaveAndClose,
		).
		SetCount(selectors.Textboxes, 2).
		SetAttr(selectors.ShareLink, "href", testLink)
}

type progressLog struct {
	mu     sync.Mutex
	events []schemas.Progress
}

func (l *progressLog) record(p schemas.Progress) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, p)
}

func (l *progressLog) snapshot() []schemas.Progress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]schemas.Progress(nil), l.events...)
}

func TestUpload_HappyPath(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := uploadPage()
	progress := &progressLog{}

	link, err := p.Upload(context.Background(), page, schemas.UploadJob{
		Path:        "/videos/clip.mp4",
		Title:       "My clip",
		Description: "About the clip",
		OnProgress:  progress.record,
	})
	require.NoError(t, err)
	assert.Equal(t, testLink, link)

	want := []schemas.Progress{
		{Percentage: 0, Stage: schemas.StageUploading},
		{Percentage: 0, Stage: schemas.StageProcessing},
		{Percentage: 100, Stage: schemas.StageDone},
	}
	if diff := cmp.Diff(want, progress.snapshot()); diff != "" {
		t.Errorf("progress events mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []mocks.ChosenFile{{Trigger: selectors.SelectFilesButton, Paths: []string{"/videos/clip.mp4"}}}, page.Files())
	assert.Equal(t, []string{"My clip"}, page.TypedInto(selectors.TitleBox))
	assert.Equal(t, []string{"About the clip"}, page.TypedInto(selectors.DescriptionBox))
	assert.Equal(t, 1, page.Clicked(selectors.MadeForKids), "audience defaults to made for kids")
	assert.Equal(t, 3, page.Clicked(selectors.NextButton))
	assert.Equal(t, 1, page.Clicked(selectors.PublishButton))
	assert.Zero(t, page.Clicked(selectors.SaveAndClose))
	assert.Contains(t, page.Scripts(), renameLegacyClose)
	assert.Equal(t, 1, page.NavigationsTo(selectors.UploadURL))
}

func TestUpload_FieldsAreTruncatedAndApplied(t *testing.T) {
	p, _ := newTestProcedures(t)
	lang := selectors.LanguageOption("English")
	page := uploadPage().
		Show(selectors.AgeRestricted, selectors.NotifyToggle, selectors.LanguageDropdown, selectors.PrivacyRadio("PUBLIC")).
		SetCount(lang, 3)
	notify := false

	title := strings.Repeat("é", 150)
	_, err := p.Upload(context.Background(), page, schemas.UploadJob{
		Path:              "/videos/clip.mp4",
		Title:             title,
		Description:       strings.Repeat("d", 6000),
		Tags:              []string{"go", "video"},
		Language:          "English",
		NotForKids:        true,
		AgeRestricted:     true,
		NotifySubscribers: &notify,
		PublishType:       schemas.VisibilityPublic,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{strings.Repeat("é", MaxTitleRunes)}, page.TypedInto(selectors.TitleBox))
	assert.Equal(t, []string{strings.Repeat("d", MaxDescriptionRunes)}, page.TypedInto(selectors.DescriptionBox))
	assert.Equal(t, []string{"go, video, "}, page.TypedInto(selectors.TagsInput))
	assert.Equal(t, 1, page.Clicked(selectors.AgeRestricted))
	assert.Zero(t, page.Clicked(selectors.MadeForKids))
	assert.Equal(t, 1, page.Clicked(selectors.NotifyToggle))
	assert.Equal(t, 1, page.Clicked(lang+"[2]"), "last language match is clicked")
	assert.Equal(t, 1, page.Clicked(selectors.PrivacyRadio("PUBLIC")))
}

func TestUpload_DailyLimit(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := uploadPage().Hide(selectors.UploadComplete).Show(selectors.DailyLimitReached)

	_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrQuota)
	assert.True(t, schemas.IsFatal(err))
	assert.Empty(t, page.TypedInto(selectors.TitleBox))
}

func TestUpload_PlatformError(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := uploadPage().SetText(selectors.UploadErrorArea, "  Invalid file format  ")
	progress := &progressLog{}

	_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t", OnProgress: progress.record})
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrPlatform)
	assert.Contains(t, err.Error(), "platform returned an error: Invalid file format")
}

func TestUpload_OpenComposer(t *testing.T) {
	t.Run("retries with a fresh navigation", func(t *testing.T) {
		p, transport := newTestProcedures(t)
		page := uploadPage().Hide(selectors.SelectFilesButton)
		navs := 0
		page.OnNavigate(func(string) {
			navs++
			if navs == 2 {
				page.Show(selectors.SelectFilesButton)
			}
		})

		_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t"})
		require.NoError(t, err)
		assert.Equal(t, 2, page.NavigationsTo(selectors.UploadURL))
		assert.Equal(t, []string{"Failed to find the select files button trying again"}, transport.Texts("log"))
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := uploadPage().Hide(selectors.SelectFilesButton)

		_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t"})
		assert.ErrorIs(t, err, schemas.ErrTransientUI)
		assert.Equal(t, timings.Fast().ComposerAttempts, page.NavigationsTo(selectors.UploadURL))
		assert.Empty(t, page.Files())
	})

	t.Run("create menu is used when shown", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := uploadPage().Show(selectors.CreateIcon, selectors.UploadVideosItem)

		_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Clicked(selectors.CreateIcon))
		assert.Equal(t, 1, page.Clicked(selectors.UploadVideosItem))
	})
}

func TestUpload_Close(t *testing.T) {
	t.Run("draft saves and returns without the confirmation", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := uploadPage()
		page.OnEvaluate(func(script string, _ any) error {
			if strings.Contains(script, "oldclosse") {
				page.Hide(selectors.CloseButton)
			}
			return nil
		})

		link, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t", UploadAsDraft: true})
		require.NoError(t, err)
		assert.Equal(t, testLink, link)
		assert.Equal(t, 1, page.Clicked(selectors.SaveAndClose))
		assert.Zero(t, page.Clicked(selectors.PublishButton))
	})

	t.Run("missing confirmation is a configuration error", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := uploadPage()
		page.OnEvaluate(func(script string, _ any) error {
			if strings.Contains(script, "oldclosse") {
				page.Hide(selectors.CloseButton)
			}
			return nil
		})

		_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t"})
		require.Error(t, err)
		assert.ErrorIs(t, err, schemas.ErrConfiguration)
		assert.Contains(t, err.Error(), VisibilityHint)
	})

	t.Run("publish click gives up after the configured attempts", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := uploadPage().FailClick(selectors.PublishButton, errors.New("node detached"))

		_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t"})
		require.Error(t, err)
		assert.ErrorIs(t, err, schemas.ErrTransientUI)
		assert.Contains(t, err.Error(), "failed to close the upload dialog")
	})

	t.Run("monetized channel dismisses the secondary dialog", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := uploadPage().Show(selectors.MonetizationSecondary)

		_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t", ChannelMonetized: true})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Clicked(selectors.MonetizationSecondary))
	})
}

func TestUpload_LinkCapture(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := uploadPage().SetAttr(selectors.ShareLink, "href", selectors.VideoBaseLink)
	go func() {
		time.Sleep(20 * time.Millisecond)
		page.SetAttr(selectors.ShareLink, "href", testLink)
	}()

	link, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, testLink, link, "the bare base link is never returned")
}

func TestUpload_ProcessingWait(t *testing.T) {
	t.Run("waits for the banner to clear", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := uploadPage().Show(selectors.ProcessingBanner)
		go func() {
			time.Sleep(20 * time.Millisecond)
			page.Hide(selectors.ProcessingBanner)
		}()

		start := time.Now()
		_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("skip does not wait for the banner", func(t *testing.T) {
		p, _ := newTestProcedures(t)
		page := uploadPage().Show(selectors.ProcessingBanner)

		_, err := p.Upload(context.Background(), page, schemas.UploadJob{Path: "/v.mp4", Title: "t", SkipProcessingWait: true})
		require.NoError(t, err)
	})
}

func TestUpload_CancelledWhileUploading(t *testing.T) {
	p, _ := newTestProcedures(t)
	page := uploadPage().Hide(selectors.UploadComplete)
	ctx, cancel := context.WithCancel(context.Background())
	progress := &progressLog{}

	done := make(chan error, 1)
	go func() {
		_, err := p.Upload(ctx, page, schemas.UploadJob{Path: "/v.mp4", Title: "t", OnProgress: progress.record})
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("upload did not return after cancellation")
	}
}

func TestProgressPoller(t *testing.T) {
	labels := []string{"Uploading 10% ...", "Uploading 10% ...", "Uploading 5%", "garbage", "Uploading 55% done", "Upload 100%"}
	var mu sync.Mutex
	i := 0
	page := mocks.NewFakePage().SetTextFunc(selectors.ProgressLabel, func() string {
		mu.Lock()
		defer mu.Unlock()
		l := labels[min(i, len(labels)-1)]
		i++
		return l
	})
	progress := &progressLog{}

	poller := startProgress(context.Background(), page, time.Millisecond, progress.record, zaptest.NewLogger(t))
	assert.Eventually(t, func() bool { return len(progress.snapshot()) == 4 }, time.Second, time.Millisecond)
	poller.Stop()
	poller.Stop()

	want := []schemas.Progress{
		{Percentage: 0, Stage: schemas.StageUploading},
		{Percentage: 10, Stage: schemas.StageUploading},
		{Percentage: 55, Stage: schemas.StageUploading},
		{Percentage: 100, Stage: schemas.StageUploading},
	}
	if diff := cmp.Diff(want, progress.snapshot()); diff != "" {
		t.Errorf("progress events mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"Uploading 42% ... 3 minutes left", 42, true},
		{"100%", 100, true},
		{"Uploading 140%", 100, true},
		{"Upload complete", 0, false},
		{"abc% done", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePercent(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstPresent(t *testing.T) {
	t.Run("later selector wins", func(t *testing.T) {
		page := mocks.NewFakePage()
		go func() {
			time.Sleep(10 * time.Millisecond)
			page.Show("#b")
		}()
		i, err := firstPresent(context.Background(), page, 0, "#a", "#b")
		require.NoError(t, err)
		assert.Equal(t, 1, i)
	})

	t.Run("timeout with no winner", func(t *testing.T) {
		_, err := firstPresent(context.Background(), mocks.NewFakePage(), 10*time.Millisecond, "#a", "#b")
		assert.Error(t, err)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo wörld", 5))
	assert.Equal(t, "short", Truncate("short", 100))
	once := Truncate(strings.Repeat("ü", 120), MaxTitleRunes)
	assert.Equal(t, once, Truncate(once, MaxTitleRunes))

	long := make([]string, 200)
	for i := range long {
		long[i] = "tag"
	}
	list := TagList(long)
	assert.True(t, strings.HasSuffix(list, ", "))
	assert.Len(t, []rune(list), MaxTagsRunes+2)
}
