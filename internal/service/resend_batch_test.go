package service

import (
	"testing"
	"time"
)

func TestResendPauseSchedule(t *testing.T) {
	opt := ResendOptions{Delay: 2 * time.Second, BatchSize: 3, BatchPause: time.Minute}
	want := []time.Duration{0, 2 * time.Second, 2 * time.Second, time.Minute, 2 * time.Second, 2 * time.Second, time.Minute}
	for i, w := range want {
		if got := opt.pauseBefore(i); got != w {
			t.Errorf("pauseBefore(%d) = %s, want %s", i, got, w)
		}
	}

	opt.BatchSize = 0
	if got := opt.pauseBefore(3); got != 2*time.Second {
		t.Errorf("without batches every gap is Delay, got %s", got)
	}
}
