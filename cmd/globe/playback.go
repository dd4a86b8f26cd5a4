package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vanderheijden86/aidglobe/pkg/export"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/playback"
	"github.com/vanderheijden86/aidglobe/pkg/session"
)

// RobotFrame is one --robot-playback line: the view after a timeline step.
type RobotFrame struct {
	Year    int               `json:"year"`
	Filter  model.FilterState `json:"filter"`
	Records int               `json:"records"`
	Cells   int               `json:"cells"`
	Done    bool              `json:"done"`
}

func frameOf(st session.State, done bool) RobotFrame {
	return RobotFrame{
		Year:    st.Playback.Year,
		Filter:  st.Filter,
		Records: st.View.Len(),
		Cells:   len(st.Cells),
		Done:    done,
	}
}

// runPlayback plays the current chapter's timeline on the wall clock and
// writes one frame per year, starting with the entry frame. A timeline
// already at its end restarts from Min.
func runPlayback(ctx context.Context, w io.Writer, env session.Env, st session.State, interval time.Duration) (session.State, error) {
	if !st.Scene.Timeline.Visible {
		return st, fmt.Errorf("chapter %q has no timeline", st.Scene.ID)
	}
	if st.Playback.AtEnd() {
		st = session.Reduce(env, st, session.Scrub{Year: st.Playback.Min})
	}

	ctx, cancel := context.WithCancel(ctx)
	ticks := make(chan playback.State)
	player := playback.NewPlayer(st.Playback,
		playback.WithInterval(interval),
		playback.WithOnTick(func(ps playback.State) {
			select {
			case ticks <- ps:
			case <-ctx.Done():
			}
		}),
	)
	defer func() {
		cancel()
		player.Stop()
		player.Wait()
	}()

	if err := export.WriteJSON(w, frameOf(st, st.Playback.AtEnd())); err != nil {
		return st, err
	}
	if st.Playback.AtEnd() {
		return st, nil
	}
	player.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case ps := <-ticks:
			st = session.Reduce(env, st, session.Scrub{Year: ps.Year})
			if err := export.WriteJSON(w, frameOf(st, !ps.Playing)); err != nil {
				return st, err
			}
			if !ps.Playing {
				return st, nil
			}
		}
	}
}
