/*
	Photark
	Copyright (c) 2026 The Photark Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package archive

import (
	"sync"
	"testing"
	"time"
)

func TestThrottleSpacing(t *testing.T) {
	const interval = minInterval
	const n = 3

	th := NewThrottle(interval)
	defer th.Stop()

	// N concurrent acquirers cannot all complete faster than
	// (N-1) * interval: one token is ready, the rest are minted on
	// the ticker
	start := time.Now()
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			th.Acquire()
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	if min := (n - 1) * interval; elapsed < min {
		t.Errorf("%d acquisitions completed in %v, want at least %v", n, elapsed, min)
	}
}

func TestThrottleFirstAcquireImmediate(t *testing.T) {
	th := NewThrottle(time.Minute)
	defer th.Stop()

	done := make(chan struct{})
	go func() {
		th.Acquire()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first acquire should not wait for the interval")
	}
}
