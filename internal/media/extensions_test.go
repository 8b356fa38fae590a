package media_test

import (
	"testing"

	"embyscan/internal/media"
)

func TestFilterMatchesDefaults(t *testing.T) {
	filter := media.NewFilter()

	cases := []struct {
		path string
		want bool
	}{
		{"/mnt/media/Movies/Arrival (2016)/Arrival.mkv", true},
		{"/mnt/media/Music/album/track.flac", true},
		{"/mnt/media/Shows/pilot.STRM", true},
		{"/mnt/media/Movies/poster.jpg", false},
		{"/mnt/media/Movies/.hidden.mkv", false},
		{"/mnt/media/Movies/incoming.mkv.part", false},
		{"/mnt/media/Movies/incoming.mkv.tmp", false},
		{"/mnt/media/Movies/README", false},
	}
	for _, tc := range cases {
		if got := filter.Match(tc.path); got != tc.want {
			t.Errorf("Match(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestFilterExtras(t *testing.T) {
	filter := media.NewFilter(".ISO", "m2ts")

	if !filter.Match("/mnt/media/disc.iso") {
		t.Fatal("expected extra extension iso to match")
	}
	if !filter.Match("/mnt/media/stream.M2TS") {
		t.Fatal("expected extra extension m2ts to match case-insensitively")
	}
	if filter.Match("/mnt/media/file.rar") {
		t.Fatal("did not expect rar to match")
	}
}
