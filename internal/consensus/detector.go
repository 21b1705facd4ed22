// Package consensus decides whether a discussion window shows structural
// agreement across roles.
//
// The decision combines independent signals: key points extracted from each
// message, similarity clustering of those points across roles, a distinct-role
// agreement ratio over the largest cluster, and bounded auxiliary adjustments
// from sentiment trend and cluster stability. An optional delegated LLM check
// may break near-threshold ties but never overrides a clearly low or clearly
// high structural ratio.
package consensus

import (
	"context"
	"fmt"
	"strings"

	"github.com/roundtable-dev/roundtable/internal/discussion"
	"github.com/roundtable-dev/roundtable/internal/llm"
	"github.com/roundtable-dev/roundtable/internal/logging"
)

const (
	defaultThreshold           = 0.7
	defaultMaxPointsPerMessage = 3
	defaultTieBand             = 0.1

	// auxAdjustment bounds each auxiliary signal's contribution to
	// confidence. Auxiliary signals never change the reached decision.
	auxAdjustment = 0.05
)

// Decision is the outcome of a consensus check.
type Decision struct {
	// Reached reports whether the window shows consensus.
	Reached bool
	// Confidence is in [0,1], monotonic in Ratio, reported even when
	// Reached is false so callers can observe near-consensus trends.
	Confidence float64
	// AgreedPoint is a representative sentence from the dominant cluster.
	AgreedPoint string
	// Ratio is the structural agreement ratio that drove the decision.
	Ratio float64
}

// Detector runs the consensus check.
type Detector struct {
	threshold           float64
	maxPointsPerMessage int
	tieBand             float64
	advisor             llm.Client
	logger              *logging.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithThreshold sets the agreement ratio required for consensus.
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		if t > 0 && t <= 1 {
			d.threshold = t
		}
	}
}

// WithMaxPointsPerMessage caps extraction per message.
func WithMaxPointsPerMessage(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxPointsPerMessage = n
		}
	}
}

// WithAdvisor enables the delegated LLM tie-break check.
func WithAdvisor(client llm.Client, tieBand float64) Option {
	return func(d *Detector) {
		d.advisor = client
		if tieBand >= 0 && tieBand <= 0.5 {
			d.tieBand = tieBand
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Detector with defaults.
func New(opts ...Option) *Detector {
	d := &Detector{
		threshold:           defaultThreshold,
		maxPointsPerMessage: defaultMaxPointsPerMessage,
		tieBand:             defaultTieBand,
		logger:              logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// point is one extracted assertion with its source role.
type point struct {
	text   string
	roleID string
	tokens map[string]struct{}
	// position is the message's index within the window, used for the
	// stability signal.
	position int
}

// Detect runs the consensus check over a history window. weights maps role ID
// to voting weight; a nil map or missing entry means weight 1.0.
func (d *Detector) Detect(ctx context.Context, window []discussion.Message, topic string, weights map[string]float64) Decision {
	roles := distinctRoles(window)
	if len(roles) < 2 {
		// Insufficient evidence, not a property of the content.
		return Decision{}
	}

	points := d.extractPoints(window)
	if len(points) == 0 {
		return Decision{}
	}

	clusters := clusterPoints(points)
	best, ratio := d.dominantCluster(clusters, roles, weights)
	if best == nil {
		return Decision{Ratio: ratio}
	}

	confidence := ratio
	if sentimentConverging(window) {
		confidence += auxAdjustment
	}
	if clusterStable(best, len(window)) {
		confidence += auxAdjustment
	}
	confidence = clamp01(confidence)

	decision := Decision{
		Reached:     ratio >= d.threshold,
		Confidence:  confidence,
		AgreedPoint: best[0].text,
		Ratio:       ratio,
	}

	if d.advisor != nil && withinBand(ratio, d.threshold, d.tieBand) {
		decision = d.applyAdvisory(ctx, window, topic, decision)
	}
	return decision
}

// extractPoints pulls candidate assertion sentences from each message,
// favoring sentences with stance markers, capped per message. A message with
// no marked sentences contributes its leading sentences instead so every
// speaker gets a voice in clustering.
func (d *Detector) extractPoints(window []discussion.Message) []point {
	var points []point
	for i, msg := range window {
		marked := make([]string, 0, d.maxPointsPerMessage)
		var unmarked []string
		for _, sentence := range splitSentences(msg.Content) {
			if hasStanceMarker(sentence) {
				marked = append(marked, sentence)
				if len(marked) >= d.maxPointsPerMessage {
					break
				}
			} else {
				unmarked = append(unmarked, sentence)
			}
		}
		if len(marked) == 0 {
			if len(unmarked) > d.maxPointsPerMessage {
				unmarked = unmarked[:d.maxPointsPerMessage]
			}
			marked = unmarked
		}
		for _, text := range marked {
			points = append(points, point{
				text:     text,
				roleID:   msg.RoleID,
				tokens:   contentTokens(text),
				position: i,
			})
		}
	}
	return points
}

// clusterPoints greedily groups points whose normalized token sets overlap
// enough to count as the same assertion. Normalization folds synonyms, so
// paraphrased restatements of one point land in one cluster.
func clusterPoints(points []point) [][]point {
	var clusters [][]point
	used := make([]bool, len(points))

	for i := range points {
		if used[i] {
			continue
		}
		cluster := []point{points[i]}
		used[i] = true

		for j := i + 1; j < len(points); j++ {
			if used[j] {
				continue
			}
			if similar(points[i], points[j]) {
				cluster = append(cluster, points[j])
				used[j] = true
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// similar reports whether two points share enough normalized tokens.
func similar(a, b point) bool {
	common := 0
	for tok := range a.tokens {
		if _, ok := b.tokens[tok]; ok {
			common++
		}
	}
	required := len(a.tokens) / 3
	if required > 3 {
		required = 3
	}
	if required < 2 {
		required = 2
	}
	return common >= required
}

// dominantCluster picks the cluster with the highest distinct-role weight and
// returns it with its agreement ratio. A role votes at most once per cluster
// regardless of how often it restates the point.
func (d *Detector) dominantCluster(clusters [][]point, roles []string, weights map[string]float64) ([]point, float64) {
	total := 0.0
	for _, roleID := range roles {
		total += roleWeight(weights, roleID)
	}
	if total == 0 {
		return nil, 0
	}

	var best []point
	bestWeight := 0.0
	for _, cluster := range clusters {
		seen := make(map[string]struct{})
		w := 0.0
		for _, p := range cluster {
			if _, ok := seen[p.roleID]; ok {
				continue
			}
			seen[p.roleID] = struct{}{}
			w += roleWeight(weights, p.roleID)
		}
		if w > bestWeight {
			bestWeight = w
			best = cluster
		}
	}
	return best, bestWeight / total
}

func roleWeight(weights map[string]float64, roleID string) float64 {
	if weights == nil {
		return 1.0
	}
	if w, ok := weights[roleID]; ok && w > 0 {
		return w
	}
	return 1.0
}

// sentimentConverging reports whether agreement language is denser in the
// later half of the window than the earlier half.
func sentimentConverging(window []discussion.Message) bool {
	if len(window) < 4 {
		return false
	}
	mid := len(window) / 2
	early := agreementDensity(window[:mid])
	late := agreementDensity(window[mid:])
	return late > early
}

func agreementDensity(msgs []discussion.Message) float64 {
	if len(msgs) == 0 {
		return 0
	}
	hits := 0
	for _, msg := range msgs {
		content := strings.ToLower(msg.Content)
		for _, kw := range agreementKeywords {
			if strings.Contains(content, kw) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(msgs))
}

// clusterStable reports whether the dominant cluster draws from both halves
// of the window, meaning membership has settled rather than still forming.
func clusterStable(cluster []point, windowLen int) bool {
	if windowLen < 4 {
		return false
	}
	mid := windowLen / 2
	early, late := false, false
	for _, p := range cluster {
		if p.position < mid {
			early = true
		} else {
			late = true
		}
	}
	return early && late
}

// applyAdvisory issues the delegated yes/no check and lets it flip the
// decision only inside the tie band. A failed or unparseable advisory reply
// leaves the structural decision untouched.
func (d *Detector) applyAdvisory(ctx context.Context, window []discussion.Message, topic string, decision Decision) Decision {
	reply, err := d.advisor.Generate(ctx, advisoryPrompt(window, topic), llm.Options{
		MaxTokens:   128,
		Temperature: 0.1,
	})
	if err != nil {
		d.logger.Warn("advisory consensus check failed, keeping structural decision", "error", err)
		return decision
	}

	upper := strings.ToUpper(reply)
	switch {
	case strings.Contains(upper, "CONSENSUS: YES"):
		if !decision.Reached {
			decision.Reached = true
			decision.Confidence = clamp01(decision.Confidence + auxAdjustment)
		}
	case strings.Contains(upper, "CONSENSUS: NO"):
		if decision.Reached {
			decision.Reached = false
			decision.Confidence = clamp01(decision.Confidence - auxAdjustment)
		}
	default:
		d.logger.Warn("advisory reply had no verdict, keeping structural decision")
	}
	return decision
}

func advisoryPrompt(window []discussion.Message, topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Below is a discussion about the topic %q:\n\n", topic)
	start := 0
	if len(window) > 6 {
		start = len(window) - 6
	}
	for _, msg := range window[start:] {
		fmt.Fprintf(&b, "[%s]: %s\n\n", msg.RoleID, msg.Content)
	}
	b.WriteString(`Based on the discussion above, has a consensus been reached among the participants?
A consensus means that all or most participants agree on key points or a solution.

Respond with either:
"CONSENSUS: YES" if there is clear agreement on main points.
"CONSENSUS: NO" if there are still significant disagreements or unresolved issues.

Provide a brief explanation for your decision.`)
	return b.String()
}

func withinBand(ratio, threshold, band float64) bool {
	if band <= 0 {
		return false
	}
	return ratio >= threshold-band && ratio <= threshold+band
}

func distinctRoles(window []discussion.Message) []string {
	seen := make(map[string]struct{})
	var roles []string
	for _, msg := range window {
		if _, ok := seen[msg.RoleID]; ok {
			continue
		}
		seen[msg.RoleID] = struct{}{}
		roles = append(roles, msg.RoleID)
	}
	return roles
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
