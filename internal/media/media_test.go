package media

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestNewClock_RejectsInvalidDuration(t *testing.T) {
	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewClock(d); !errors.Is(err, ErrInvalidMedia) {
			t.Errorf("NewClock(%v) error = %v, want ErrInvalidMedia", d, err)
		}
	}
}

func TestClock_AdvancesWithRate(t *testing.T) {
	fn := &fakeNow{t: time.Unix(0, 0)}
	c, err := NewClock(120, WithNow(fn.now))
	if err != nil {
		t.Fatal(err)
	}

	fn.advance(time.Second)
	if got := c.CurrentTime(); got != 0 {
		t.Errorf("paused clock moved to %v", got)
	}

	c.Play()
	fn.advance(2 * time.Second)
	if got := c.CurrentTime(); got != 2 {
		t.Errorf("CurrentTime() = %v, want 2", got)
	}

	c.SetPlaybackRate(10)
	fn.advance(time.Second)
	if got := c.CurrentTime(); got != 12 {
		t.Errorf("CurrentTime() after 10x = %v, want 12", got)
	}

	c.SetPlaybackRate(0)
	if c.PlaybackRate() != 10 {
		t.Errorf("zero rate should be ignored, got %v", c.PlaybackRate())
	}

	c.Pause()
	fn.advance(time.Minute)
	if got := c.CurrentTime(); got != 12 {
		t.Errorf("paused CurrentTime() = %v, want 12", got)
	}
}

func TestClock_StopsAtEnd(t *testing.T) {
	fn := &fakeNow{t: time.Unix(0, 0)}
	c, _ := NewClock(5, WithNow(fn.now))
	c.Play()
	fn.advance(10 * time.Second)

	if got := c.CurrentTime(); got != 5 {
		t.Errorf("CurrentTime() = %v, want 5", got)
	}
	if c.Playing() {
		t.Error("clock should stop at end of media")
	}

	c.Play()
	if got := c.CurrentTime(); got != 0 {
		t.Errorf("play from end should restart, got %v", got)
	}
}

func TestClock_SeekClamps(t *testing.T) {
	c, _ := NewClock(60)
	c.SetCurrentTime(-3)
	if got := c.CurrentTime(); got != 0 {
		t.Errorf("seek below zero = %v", got)
	}
	c.SetCurrentTime(99)
	if got := c.CurrentTime(); got != 60 {
		t.Errorf("seek past end = %v", got)
	}
	c.Toggle()
	if !c.Playing() {
		t.Error("Toggle should start playback")
	}
	if got := c.CurrentTime(); got > 1 {
		t.Errorf("playing from the end should restart near zero, got %v", got)
	}
}

func TestProbeDuration_MediaAndMaster(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "video.m3u8")
	mediaBody := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10.0,
seg0.ts
#EXTINF:10.0,
seg1.ts
#EXTINF:4.5,
seg2.ts
#EXT-X-ENDLIST
`
	if err := os.WriteFile(mediaPath, []byte(mediaBody), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := ProbeDuration(mediaPath)
	if err != nil {
		t.Fatalf("ProbeDuration(media) error: %v", err)
	}
	if math.Abs(d-24.5) > 1e-9 {
		t.Errorf("duration = %v, want 24.5", d)
	}

	masterPath := filepath.Join(dir, "master.m3u8")
	masterBody := `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=640x360
video.m3u8
`
	if err := os.WriteFile(masterPath, []byte(masterBody), 0644); err != nil {
		t.Fatal(err)
	}
	d, err = ProbeDuration(masterPath)
	if err != nil {
		t.Fatalf("ProbeDuration(master) error: %v", err)
	}
	if math.Abs(d-24.5) > 1e-9 {
		t.Errorf("master duration = %v, want 24.5", d)
	}
}

func TestProbeDuration_MissingFile(t *testing.T) {
	if _, err := ProbeDuration(filepath.Join(t.TempDir(), "nope.m3u8")); err == nil {
		t.Error("expected error for missing playlist")
	}
}
