package pipeline

import (
	"context"
	"fmt"

	"adfactory/internal/domain"
	"adfactory/internal/providers/llm"
)

type rawShotList struct {
	ScriptID        string        `json:"script_id"`
	TransitionStyle string        `json:"transition_style"`
	Shots           []domain.Shot `json:"shots"`
}

// shots plans one ordered shot list per script in a single
// structured-generation call, joined back by script_id.
func (r *run) shots(ctx context.Context) {
	if len(r.job.Scripts) == 0 {
		r.job.Fail(domain.StageShots, fmt.Errorf("%w: script packages", domain.ErrMissingUpstream))
		return
	}

	user := fmt.Sprintf(
		"Scripts (one shot list each, keyed by script_id):\n%s\n\nAvailable shot types:\n%s",
		describeJSON(r.job.Scripts), describeJSON(r.tpl.ShotTypes),
	)
	raw, err := r.p.llm.Generate(ctx, r.tpl.Prompts.Shots, user)
	if err != nil {
		r.job.Fail(domain.StageShots, err)
		return
	}
	var parsed []rawShotList
	if err := llm.Decode(domain.StageShots, raw, &parsed); err != nil {
		r.job.Fail(domain.StageShots, err)
		return
	}

	scriptByID := make(map[string]domain.ScriptPackage, len(r.job.Scripts))
	for _, script := range r.job.Scripts {
		scriptByID[script.ScriptID] = script
	}
	seen := make(map[string]bool, len(parsed))
	for _, rawList := range parsed {
		script, ok := scriptByID[rawList.ScriptID]
		if !ok {
			r.job.Warn("shots: dropped shot list for unknown script %q", rawList.ScriptID)
			continue
		}
		if seen[rawList.ScriptID] {
			r.job.Warn("shots: dropped duplicate shot list for script %q", rawList.ScriptID)
			continue
		}
		if len(rawList.Shots) == 0 {
			r.job.Warn("shots: dropped empty shot list for script %q", rawList.ScriptID)
			continue
		}
		seen[rawList.ScriptID] = true

		listID := fmt.Sprintf("shotlist-%d", len(r.job.ShotLists)+1)
		list := domain.ShotList{
			ShotListID:      listID,
			ScriptID:        script.ScriptID,
			AngleID:         script.AngleID,
			TransitionStyle: rawList.TransitionStyle,
		}
		if list.TransitionStyle == "" {
			list.TransitionStyle = r.tpl.TransitionStyle
		}
		for i, shot := range rawList.Shots {
			shot.ShotID = fmt.Sprintf("%s-shot-%d", listID, i+1)
			if shot.Duration <= 0 {
				shot.Duration = r.typicalDuration(shot.ShotType)
			}
			list.TotalDuration += shot.Duration
			list.Shots = append(list.Shots, shot)
		}
		r.job.ShotLists = append(r.job.ShotLists, list)
	}
	if len(r.job.ShotLists) == 0 {
		r.job.Fail(domain.StageShots, fmt.Errorf("%w: no usable shot lists generated", domain.ErrMissingUpstream))
		return
	}
	r.log.Info().Int("shot_lists", len(r.job.ShotLists)).Msg("shots: planned")
}

func (r *run) typicalDuration(shotType string) float64 {
	for _, st := range r.tpl.ShotTypes {
		if st.Name == shotType && st.TypicalDuration > 0 {
			return st.TypicalDuration
		}
	}
	return 3.0
}
