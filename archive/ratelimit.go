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

import "time"

// Throttle is a token-bucket rate limit shared by all workers. One
// token is available immediately; one more is minted per interval, so
// callers that outpace the interval block in Acquire until the window
// reopens.
type Throttle struct {
	ticker *time.Ticker
	token  chan struct{}
}

// NewThrottle returns a throttle that permits one acquisition per
// interval. If interval is not positive, a sensible minimum is used.
func NewThrottle(interval time.Duration) *Throttle {
	if interval < minInterval {
		interval = minInterval
	}

	th := &Throttle{
		ticker: time.NewTicker(interval),
		token:  make(chan struct{}, 1),
	}
	th.token <- struct{}{}

	go func() {
		for range th.ticker.C {
			th.token <- struct{}{}
		}
	}()

	return th
}

// Acquire blocks until a token is available.
func (th *Throttle) Acquire() {
	<-th.token
}

// Stop releases the throttle's ticker. Pending Acquire calls may
// still consume already-minted tokens.
func (th *Throttle) Stop() {
	th.ticker.Stop()
}

const minInterval = 100 * time.Millisecond
