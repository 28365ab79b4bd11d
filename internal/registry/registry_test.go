package registry

import "testing"

func TestNewCatalogueSize(t *testing.T) {
	r := New()
	all := r.All()
	// 6 fixed + 16 tracks * 3
	expected := 6 + 16*3
	if len(all) != expected {
		t.Errorf("len(All()) = %d, expected %d", len(all), expected)
	}
}

func TestGetKnownAndUnknown(t *testing.T) {
	r := New()

	d, ok := r.Get("tempo")
	if !ok {
		t.Fatalf("expected tempo to be registered")
	}
	if d.Encoding.CC != 80 || d.Encoding.Channel != 1 {
		t.Errorf("tempo encoding = %+v, expected CC80/ch1", d.Encoding)
	}
	if d.Default != 64 {
		t.Errorf("tempo default = %d, expected 64", d.Default)
	}

	_, ok = r.Get("does_not_exist")
	if ok {
		t.Errorf("expected unknown id to return ok=false")
	}
}

func TestTrackParameterIDs(t *testing.T) {
	r := New()
	vol, mute, pan := TrackParameterIDs(7)
	if vol != "track_7_volume" || mute != "track_7_mute" || pan != "track_7_pan" {
		t.Errorf("TrackParameterIDs(7) = %q, %q, %q", vol, mute, pan)
	}

	d, ok := r.Get(vol)
	if !ok {
		t.Fatalf("expected %s to be registered", vol)
	}
	if d.Encoding.Channel != 7 || d.Encoding.CC != 7 || d.Default != 100 {
		t.Errorf("track_7_volume = %+v, expected channel=7 cc=7 default=100", d)
	}

	d, ok = r.Get(mute)
	if !ok || d.Encoding.CC != 9 || d.Default != 0 {
		t.Errorf("track_7_mute = %+v, expected cc=9 default=0", d)
	}

	d, ok = r.Get(pan)
	if !ok || d.Encoding.CC != 10 || d.Default != 64 {
		t.Errorf("track_7_pan = %+v, expected cc=10 default=64", d)
	}
}

func TestByChannelCC(t *testing.T) {
	r := New()
	d, ok := r.ByChannelCC(1, 80)
	if !ok || d.ID != "tempo" {
		t.Errorf("ByChannelCC(1, 80) = %+v, %v, expected tempo", d, ok)
	}

	_, ok = r.ByChannelCC(1, 127)
	if ok {
		t.Errorf("expected no descriptor at channel=1 cc=127")
	}
}

func TestByCategory(t *testing.T) {
	r := New()
	tracks := r.ByCategory(CategoryTrack)
	if len(tracks) != 16*3 {
		t.Errorf("len(ByCategory(CategoryTrack)) = %d, expected %d", len(tracks), 16*3)
	}
}
