package learner

import (
	"math/rand"

	"github.com/asgard/safla/internal/safla/model"
	"github.com/montanaflynn/stats"
)

// paramBound is a fixed [min,max] range for one tunable parameter.
type paramBound struct {
	Min, Max float64
}

// parameterSpace is the fixed parameter space §4.L.opt names.
var parameterSpace = map[string]paramBound{
	"sense_buffer_size":   {Min: 1000, Max: 20000},
	"analysis_cache_size": {Min: 500, Max: 2000},
	"tick_interval":       {Min: 0.05, Max: 0.5},
	"safety_threshold":    {Min: 0.1, Max: 0.9},
	"confidence_threshold": {Min: 0.5, Max: 0.95},
}

const (
	optimizerLearningRate  = 0.01
	epsilonInitial         = 0.1
	epsilonMin             = 0.05
	epsilonMax             = 0.3
	epsilonDecayOnHighReward = 0.99
	epsilonGrowOnLowReward   = 1.01
	rewardHighThreshold      = 0.8
	rewardLowThreshold       = 0.3
)

// Optimizer is an ε-greedy tuner over the fixed §4.L.opt parameter space.
type Optimizer struct {
	values        map[string]float64
	history       map[string][]float64 // per-parameter value trace
	rewardHistory map[string][]float64 // per-parameter reward trace, parallel to history
	epsilon       float64
	rng           *rand.Rand
}

// NewOptimizer seeds every parameter at the midpoint of its range. rng
// defaults to a time-independent deterministic source if nil is passed by a
// caller that wants reproducibility; production call sites should pass
// rand.New(rand.NewSource(time.Now().UnixNano())).
func NewOptimizer(rng *rand.Rand) *Optimizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	values := make(map[string]float64, len(parameterSpace))
	for name, b := range parameterSpace {
		values[name] = (b.Min + b.Max) / 2
	}
	return &Optimizer{
		values:        values,
		history:       make(map[string][]float64),
		rewardHistory: make(map[string][]float64),
		epsilon:       epsilonInitial,
		rng:           rng,
	}
}

// Value returns the optimizer's current value for a parameter.
func (o *Optimizer) Value(name string) float64 { return o.values[name] }

// Epsilon returns the optimizer's current exploration rate.
func (o *Optimizer) Epsilon() float64 { return o.epsilon }

// Propose produces one parameter adjustment per call (§4.L step 5), then
// updates epsilon based on the observed reward.
func (o *Optimizer) Propose(reward float64) model.ParameterAdjustment {
	var adj model.ParameterAdjustment

	if o.rng.Float64() < o.epsilon {
		adj = o.explore()
	} else {
		adj = o.exploit(reward)
	}
	adj.Reward = reward

	o.recordHistory(adj.Parameter, adj.NewValue, reward)
	o.updateEpsilon(reward)
	return adj
}

func (o *Optimizer) explore() model.ParameterAdjustment {
	names := sortedParamNames()
	name := names[o.rng.Intn(len(names))]
	b := parameterSpace[name]
	old := o.values[name]
	newVal := b.Min + o.rng.Float64()*(b.Max-b.Min)
	o.values[name] = newVal
	return model.ParameterAdjustment{Parameter: name, OldValue: old, NewValue: newVal, Explored: true}
}

// exploit picks the parameter whose historical value trace correlates most
// strongly (by magnitude) with observed reward, then nudges its current
// value a learning-rate step in the direction that improves reward.
func (o *Optimizer) exploit(reward float64) model.ParameterAdjustment {
	bestName := ""
	bestCorr := 0.0
	for _, name := range sortedParamNames() {
		vals := o.history[name]
		rewards := o.rewardHistory[name]
		if len(vals) < 3 || len(vals) != len(rewards) {
			continue
		}
		corr, err := stats.Correlation(stats.Float64Data(vals), stats.Float64Data(rewards))
		if err != nil {
			continue
		}
		if absf(corr) > absf(bestCorr) {
			bestCorr = corr
			bestName = name
		}
	}

	if bestName == "" {
		// No history yet to exploit: fall back to a uniform random pick,
		// same shape as exploration but not counted as Explored.
		names := sortedParamNames()
		bestName = names[o.rng.Intn(len(names))]
	}

	b := parameterSpace[bestName]
	old := o.values[bestName]
	rng := b.Max - b.Min
	step := optimizerLearningRate * rng
	newVal := old
	if bestCorr >= 0 {
		newVal = old + step
	} else {
		newVal = old - step
	}
	newVal = clamp(newVal, b.Min, b.Max)
	o.values[bestName] = newVal

	return model.ParameterAdjustment{Parameter: bestName, OldValue: old, NewValue: newVal, Explored: false}
}

func (o *Optimizer) recordHistory(name string, value, reward float64) {
	o.history[name] = append(o.history[name], value)
	o.rewardHistory[name] = append(o.rewardHistory[name], reward)
}

func (o *Optimizer) updateEpsilon(reward float64) {
	switch {
	case reward > rewardHighThreshold:
		o.epsilon *= epsilonDecayOnHighReward
	case reward < rewardLowThreshold:
		o.epsilon *= epsilonGrowOnLowReward
	}
	o.epsilon = clamp(o.epsilon, epsilonMin, epsilonMax)
}

func sortedParamNames() []string {
	return []string{
		"analysis_cache_size",
		"confidence_threshold",
		"safety_threshold",
		"sense_buffer_size",
		"tick_interval",
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
