package engine

import (
	"sort"

	"github.com/aquastack-labs/fishdoc/internal/kb"
)

// Diagnosis is the result of a full consultation run.
type Diagnosis struct {
	Method         string             `json:"method"`
	Facts          map[string]float64 `json:"facts"`
	Conclusion     string             `json:"conclusion,omitempty"`
	ConclusionName string             `json:"conclusion_name,omitempty"`
	CF             float64            `json:"cf"`
	Threshold      float64            `json:"threshold"`
	Recommendation string             `json:"recommendation,omitempty"`
	Prevention     []string           `json:"prevention,omitempty"`
	UsedRules      []string           `json:"used_rules,omitempty"`
	Trace          []Step             `json:"trace,omitempty"`
}

// Conclusive reports whether a disease cleared the confidence threshold.
func (d *Diagnosis) Conclusive() bool {
	return d.Conclusion != ""
}

// Path returns the reasoning path string.
func (d *Diagnosis) Path() string {
	return ReasoningPath(d.UsedRules)
}

// Diagnose runs a forward-chaining consultation. observed maps symptom IDs to
// the user's certainty in [0,1]; each entry is scaled by the symptom's weight
// before inference. The best-scoring disease wins only if it clears the
// engine threshold.
func (e *Engine) Diagnose(base *kb.KnowledgeBase, observed map[string]float64) *Diagnosis {
	initial := make(map[string]float64, len(observed))
	for id, userCF := range observed {
		sym, ok := base.Symptoms[id]
		if !ok {
			e.logger.Warn("ignoring unknown symptom", "symptom", id)
			continue
		}
		cf := kb.Clamp01(userCF) * sym.EffectiveWeight()
		if cf <= 0 {
			continue
		}
		initial[id] = cf
	}

	fr := e.Forward(base.Rules, initial, 0)

	diag := &Diagnosis{
		Method:    "forward",
		Facts:     fr.FactsCF,
		Threshold: e.threshold,
		UsedRules: fr.UsedRules,
		Trace:     fr.Trace,
	}

	bestID, bestCF := "", 0.0
	for _, id := range sortedFactIDs(fr.FactsCF) {
		if _, isDisease := base.Diseases[id]; !isDisease {
			continue
		}
		if cf := fr.FactsCF[id]; cf > bestCF {
			bestID, bestCF = id, cf
		}
	}

	if bestID == "" || bestCF < e.threshold {
		e.logger.Info("diagnosis inconclusive",
			"best", bestID, "cf", bestCF, "threshold", e.threshold)
		return diag
	}

	disease := base.Diseases[bestID]
	diag.Conclusion = bestID
	diag.ConclusionName = disease.Name
	diag.CF = bestCF
	diag.Prevention = disease.Prevention
	diag.Recommendation = e.recommendation(base, fr.UsedRules, bestID)

	e.logger.Info("diagnosis concluded",
		"disease", bestID, "cf", bestCF, "rules", len(fr.UsedRules))
	return diag
}

// Check tests a single disease hypothesis goal-driven: the observed symptoms
// are weighted exactly as in Diagnose, then backward chaining tries to prove
// the disease. The hypothesis is confirmed only if the proof clears the
// threshold.
func (e *Engine) Check(base *kb.KnowledgeBase, observed map[string]float64, diseaseID string) *Diagnosis {
	initial := make(map[string]float64, len(observed))
	for id, userCF := range observed {
		sym, ok := base.Symptoms[id]
		if !ok {
			e.logger.Warn("ignoring unknown symptom", "symptom", id)
			continue
		}
		cf := kb.Clamp01(userCF) * sym.EffectiveWeight()
		if cf <= 0 {
			continue
		}
		initial[id] = cf
	}

	br := e.Backward(base.Rules, initial, diseaseID)

	facts := make(map[string]float64, len(initial)+1)
	for id, cf := range initial {
		facts[id] = cf
	}
	if br.Success {
		facts[diseaseID] = br.CF
	}

	diag := &Diagnosis{
		Method:    "backward",
		Facts:     facts,
		Threshold: e.threshold,
		UsedRules: br.UsedRules,
		Trace:     br.Trace,
	}

	if !br.Success || br.CF < e.threshold {
		e.logger.Info("hypothesis not confirmed",
			"disease", diseaseID, "cf", br.CF, "threshold", e.threshold)
		return diag
	}

	disease := base.Diseases[diseaseID]
	diag.Conclusion = diseaseID
	diag.ConclusionName = disease.Name
	diag.CF = br.CF
	diag.Prevention = disease.Prevention
	diag.Recommendation = e.recommendation(base, br.UsedRules, diseaseID)

	e.logger.Info("hypothesis confirmed",
		"disease", diseaseID, "cf", br.CF, "rules", len(br.UsedRules))
	return diag
}

// recommendation picks the recommendation attached to the last fired rule that
// concluded the disease, falling back to the disease's first treatment.
func (e *Engine) recommendation(base *kb.KnowledgeBase, usedRules []string, diseaseID string) string {
	for i := len(usedRules) - 1; i >= 0; i-- {
		rule, ok := base.Rules[usedRules[i]]
		if !ok {
			continue
		}
		if rule.Then == diseaseID && rule.Recommendation != "" {
			return rule.Recommendation
		}
	}
	if ts := base.Diseases[diseaseID].Treatments; len(ts) > 0 {
		return ts[0]
	}
	return ""
}

// RankedDiseases lists every disease with positive CF, strongest first.
func RankedDiseases(base *kb.KnowledgeBase, factsCF map[string]float64) []RankedDisease {
	var out []RankedDisease
	for id, cf := range factsCF {
		if _, ok := base.Diseases[id]; !ok || cf <= 0 {
			continue
		}
		out = append(out, RankedDisease{ID: id, Name: base.DiseaseName(id), CF: cf})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CF != out[j].CF {
			return out[i].CF > out[j].CF
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RankedDisease is one candidate disease with its accumulated certainty.
type RankedDisease struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	CF   float64 `json:"cf"`
}

func sortedFactIDs(facts map[string]float64) []string {
	out := make([]string, 0, len(facts))
	for id := range facts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
