package classify

import (
	"context"
	"errors"
	"testing"

	"hopper/internal/logging"
	"hopper/internal/media/ffprobe"
)

type stubProber struct {
	caps  ffprobe.Capabilities
	err   error
	calls int
}

func (s *stubProber) Probe(_ context.Context, _ string) (ffprobe.Capabilities, error) {
	s.calls++
	if s.err != nil {
		return ffprobe.Capabilities{}, s.err
	}
	return s.caps, nil
}

type stubSniffer struct {
	mime  string
	err   error
	calls int
}

func (s *stubSniffer) Detect(_ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.mime, nil
}

func newTestClassifier(prober *stubProber, sniffer *stubSniffer) *Classifier {
	return New(prober, sniffer, logging.NewNop())
}

func TestClassifyVideoExtensionSkipsProbe(t *testing.T) {
	prober := &stubProber{}
	sniffer := &stubSniffer{}
	c := newTestClassifier(prober, sniffer)

	for _, path := range []string{"/q/movie.mkv", "/q/clip.AVI", "/q/cam.m2ts"} {
		if kind := c.Classify(context.Background(), path); kind != KindVideo {
			t.Errorf("%s: kind = %q, want video", path, kind)
		}
	}
	if prober.calls != 0 || sniffer.calls != 0 {
		t.Fatalf("allow-listed video must not probe or sniff (probe=%d sniff=%d)", prober.calls, sniffer.calls)
	}
}

func TestClassifyAmbiguousContainer(t *testing.T) {
	cases := []struct {
		name   string
		prober *stubProber
		want   Kind
	}{
		{"video stream confirmed", &stubProber{caps: ffprobe.Capabilities{HasVideo: true, HasAudio: true}}, KindVideo},
		{"audio only never becomes audio", &stubProber{caps: ffprobe.Capabilities{HasAudio: true}}, KindAmbiguous},
		{"probe failure", &stubProber{err: errors.New("moov atom not found")}, KindAmbiguous},
	}
	for _, tc := range cases {
		c := newTestClassifier(tc.prober, &stubSniffer{})
		if kind := c.Classify(context.Background(), "/q/concert.mp4"); kind != tc.want {
			t.Errorf("%s: kind = %q, want %q", tc.name, kind, tc.want)
		}
	}
}

func TestClassifyAudioRequiresProbeConfirmation(t *testing.T) {
	cases := []struct {
		name   string
		prober *stubProber
		want   Kind
	}{
		{"parseable audio", &stubProber{caps: ffprobe.Capabilities{HasAudio: true}}, KindSaneAudio},
		{"corrupt file", &stubProber{err: errors.New("invalid data")}, KindOther},
		{"no audio stream", &stubProber{caps: ffprobe.Capabilities{}}, KindOther},
	}
	for _, tc := range cases {
		c := newTestClassifier(tc.prober, &stubSniffer{})
		if kind := c.Classify(context.Background(), "/q/song.flac"); kind != tc.want {
			t.Errorf("%s: kind = %q, want %q", tc.name, kind, tc.want)
		}
	}
}

func TestClassifyImageExtensionCaseInsensitive(t *testing.T) {
	prober := &stubProber{}
	c := newTestClassifier(prober, &stubSniffer{})

	if kind := c.Classify(context.Background(), "/q/photo.JPG"); kind != KindImage {
		t.Fatalf("kind = %q, want image", kind)
	}
	if prober.calls != 0 {
		t.Fatal("image extension must not probe")
	}
}

func TestClassifyUnknownExtensionFallsBackToMIME(t *testing.T) {
	cases := []struct {
		name    string
		sniffer *stubSniffer
		prober  *stubProber
		want    Kind
	}{
		{"video mime trusted directly", &stubSniffer{mime: "video/x-matroska"}, &stubProber{}, KindVideo},
		{"image mime trusted directly", &stubSniffer{mime: "image/png"}, &stubProber{}, KindImage},
		{"audio mime needs probe", &stubSniffer{mime: "audio/flac"}, &stubProber{caps: ffprobe.Capabilities{HasAudio: true}}, KindSaneAudio},
		{"audio mime probe failure", &stubSniffer{mime: "audio/flac"}, &stubProber{err: errors.New("bad")}, KindOther},
		{"unrelated mime", &stubSniffer{mime: "application/pdf"}, &stubProber{}, KindOther},
		{"sniff failure", &stubSniffer{err: errors.New("unreadable")}, &stubProber{}, KindOther},
	}
	for _, tc := range cases {
		c := newTestClassifier(tc.prober, tc.sniffer)
		if kind := c.Classify(context.Background(), "/q/mystery.bin"); kind != tc.want {
			t.Errorf("%s: kind = %q, want %q", tc.name, kind, tc.want)
		}
	}

	// MIME direct-trust paths must not touch the prober.
	prober := &stubProber{}
	c := newTestClassifier(prober, &stubSniffer{mime: "video/mp4"})
	c.Classify(context.Background(), "/q/mystery.bin")
	if prober.calls != 0 {
		t.Fatal("video mime must not probe")
	}
}

func TestClassifyVideoExtensionNeverAudio(t *testing.T) {
	// Even a prober that reports audio-only content cannot reclassify a
	// file with a video extension.
	prober := &stubProber{caps: ffprobe.Capabilities{HasAudio: true}}
	c := newTestClassifier(prober, &stubSniffer{mime: "audio/mpeg"})

	if kind := c.Classify(context.Background(), "/q/show.mkv"); kind != KindVideo {
		t.Fatalf("kind = %q, want video", kind)
	}
}
