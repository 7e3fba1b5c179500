package scoring

import (
	"math"

	"partymatch/internal/models"
)

// Base score weights, summing to 1.0.
const (
	weightRegion       = 0.2
	weightLanguage     = 0.15
	weightTimezone     = 0.15
	weightExperience   = 0.1
	weightPlayStyle    = 0.1
	weightRoles        = 0.1
	weightAvailability = 0.1
	weightRatings      = 0.1
)

// Extended score weights, summing to 1.0.
const (
	weightBase      = 0.3
	weightSkill     = 0.15
	weightBehavior  = 0.15
	weightCampaign  = 0.15
	weightTechnical = 0.1
	weightSocial    = 0.15
)

// Score returns the compatibility of two profiles in [0,1]. When both
// carry extended info the extended recombination is used; otherwise the
// base score alone.
func Score(p1, p2 *models.PlayerProfile) float64 {
	if p1.Extended != nil && p2.Extended != nil {
		return ExtendedScore(p1, p2)
	}
	return BaseScore(p1, p2)
}

// BaseScore computes the eight-dimension weighted score.
func BaseScore(p1, p2 *models.PlayerProfile) float64 {
	score := 0.0

	if p1.Region == p2.Region {
		score += weightRegion
	}

	if hasCommonString(p1.Languages, p2.Languages) {
		score += weightLanguage
	}

	tzDiff := math.Abs(float64(p1.TimezoneOffset - p2.TimezoneOffset))
	score += weightTimezone * (1 - math.Min(tzDiff/12, 1))

	expDiff := math.Abs(p1.Experience - p2.Experience)
	score += weightExperience * (1 - math.Min(expDiff/100, 1))

	if p1.PlayStyle == p2.PlayStyle {
		score += weightPlayStyle
	} else {
		score += weightPlayStyle * 0.5
	}

	score += weightRoles * roleComplement(p1.PreferredRoles, p2.PreferredRoles)
	score += weightAvailability * availabilityOverlap(p1.Availability, p2.Availability)
	score += weightRatings * ratingCompatibility(p1.Ratings, p2.Ratings)

	return clamp01(score)
}

// ExtendedScore recombines the base score with the five deep-profile
// dimensions.
func ExtendedScore(p1, p2 *models.PlayerProfile) float64 {
	base := BaseScore(p1, p2)
	e1, e2 := p1.Extended, p2.Extended

	score := base*weightBase +
		skillCompatibility(e1.Skills, e2.Skills)*weightSkill +
		behaviorCompatibility(e1.Behavior, e2.Behavior)*weightBehavior +
		campaignCompatibility(e1.CampaignPreferences, e2.CampaignPreferences)*weightCampaign +
		technicalCompatibility(e1.Equipment, e2.Equipment)*weightTechnical +
		socialCompatibility(e1.SocialPreferences, e2.SocialPreferences)*weightSocial

	return clamp01(score)
}

// roleComplement is 1.0 when the combined roles cover both tank and
// healer; otherwise the fraction of the four roles covered.
func roleComplement(roles1, roles2 []string) float64 {
	union := make(map[string]struct{})
	for _, r := range roles1 {
		union[r] = struct{}{}
	}
	for _, r := range roles2 {
		union[r] = struct{}{}
	}

	_, hasTank := union[models.RoleTank]
	_, hasHealer := union[models.RoleHealer]
	if hasTank && hasHealer {
		return 1
	}
	return float64(len(union)) / 4
}

func availabilityOverlap(a1, a2 models.Availability) float64 {
	days2 := make(map[int]struct{}, len(a2.Days))
	for _, d := range a2.Days {
		days2[d] = struct{}{}
	}
	commonDays := 0
	for _, d := range a1.Days {
		if _, ok := days2[d]; ok {
			commonDays++
		}
	}

	timeOverlap := 0.0
	for _, r1 := range a1.TimeRanges {
		for _, r2 := range a2.TimeRanges {
			if r1.Start < r2.End && r2.Start < r1.End {
				timeOverlap = 1
				break
			}
		}
		if timeOverlap > 0 {
			break
		}
	}

	return (float64(commonDays)/7 + timeOverlap) / 2
}

// ratingCompatibility penalizes the worst-matched rating axis.
func ratingCompatibility(r1, r2 models.Ratings) float64 {
	const maxDiff = 2.0

	worst := math.Abs(r1.Overall - r2.Overall)
	worst = math.Max(worst, math.Abs(r1.Teamwork-r2.Teamwork))
	worst = math.Max(worst, math.Abs(r1.Communication-r2.Communication))
	worst = math.Max(worst, math.Abs(r1.Reliability-r2.Reliability))

	return clamp01(1 - worst/maxDiff)
}

func skillCompatibility(s1, s2 models.PlayerSkills) float64 {
	diffs := []float64{
		math.Abs(s1.Roleplay - s2.Roleplay),
		math.Abs(s1.Combat - s2.Combat),
		math.Abs(s1.Strategy - s2.Strategy),
		math.Abs(s1.Teamwork - s2.Teamwork),
		math.Abs(s1.Leadership - s2.Leadership),
	}

	sum := 0.0
	for _, d := range diffs {
		sum += d
	}
	avg := sum / float64(len(diffs))

	return clamp01(1 - avg/5)
}

func behaviorCompatibility(b1, b2 models.PlayerBehavior) float64 {
	toxicity := math.Min(1, 1-float64(b1.ToxicityReports+b2.ToxicityReports)/20)
	toxicity = math.Max(toxicity, 0)

	meanCompletion := (b1.SessionCompletion + b2.SessionCompletion) / 2
	meanDisconnection := (b1.DisconnectionRate + b2.DisconnectionRate) / 2
	reliability := (meanCompletion + (1 - meanDisconnection)) / 2

	participation := math.Min(b1.ActiveParticipation, b2.ActiveParticipation) / 10

	return clamp01(toxicity*0.4 + reliability*0.4 + participation*0.2)
}

func campaignCompatibility(c1, c2 models.CampaignPreferences) float64 {
	score := 0.0

	score += setOverlapRatio(c1.Styles, c2.Styles)
	score += setOverlapRatio(c1.Tones, c2.Tones)

	if c1.CampaignLength == c2.CampaignLength {
		score += 1
	}
	if c1.MaturityRating == c2.MaturityRating {
		score += 1
	}

	levelDiff := math.Abs(float64(fantasyLevelIndex(c1.FantasyLevel) - fantasyLevelIndex(c2.FantasyLevel)))
	score += 1 - levelDiff/2

	if c1.PvP == c2.PvP {
		score += 1
	}

	return clamp01(score / 6)
}

func technicalCompatibility(e1, e2 models.Equipment) float64 {
	// 50 Mbps as the full-credit baseline.
	minSpeed := math.Min(e1.InternetSpeed, e2.InternetSpeed)
	internet := math.Min(1, minSpeed/50)

	device := 0.5
	if e1.DeviceType == e2.DeviceType {
		device = 1
	}

	peripherals := 0.0
	if e1.HasWebcam == e2.HasWebcam {
		peripherals += 0.5
	}
	if e1.HasMicrophone == e2.HasMicrophone {
		peripherals += 0.5
	}

	return clamp01(internet*0.4 + device*0.3 + peripherals*0.3)
}

func socialCompatibility(s1, s2 models.SocialPreferences) float64 {
	comm := 0.0
	if s1.VoiceChatPreferred == s2.VoiceChatPreferred {
		comm++
	}
	if s1.VideoChatPreferred == s2.VideoChatPreferred {
		comm++
	}
	if s1.TextChatPreferred == s2.TextChatPreferred {
		comm++
	}
	comm /= 3

	language := sharedLanguageFluency(s1.LanguageFluency, s2.LanguageFluency)

	age := 0.0
	if s1.AgeGroup == s2.AgeGroup {
		age = 1
	} else if absInt(ageGroupIndex(s1.AgeGroup)-ageGroupIndex(s2.AgeGroup)) == 1 {
		age = 0.5
	}

	size := 0.0
	if minInt(s1.GroupSize.Max, s2.GroupSize.Max)-maxInt(s1.GroupSize.Min, s2.GroupSize.Min) > 0 {
		size = 1
	}

	return clamp01(comm*0.3 + language*0.3 + age*0.2 + size*0.2)
}

// sharedLanguageFluency scores the best shared language by the weaker
// speaker's fluency, scaled to [0,1].
func sharedLanguageFluency(f1, f2 map[string]string) float64 {
	best := -1
	for lang, level1 := range f1 {
		level2, ok := f2[lang]
		if !ok {
			continue
		}
		weaker := minInt(fluencyIndex(level1), fluencyIndex(level2))
		if weaker > best {
			best = weaker
		}
	}
	if best < 0 {
		return 0
	}
	return float64(best) / 3
}

// setOverlapRatio is |intersection| / max(|a|,|b|), 1 when both empty.
func setOverlapRatio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	common := 0
	for _, s := range a {
		if _, ok := set[s]; ok {
			common++
		}
	}
	return float64(common) / float64(maxInt(len(a), len(b)))
}

func fantasyLevelIndex(level string) int {
	switch level {
	case models.FantasyLow:
		return 0
	case models.FantasyMedium:
		return 1
	case models.FantasyHigh:
		return 2
	default:
		return 1
	}
}

func fluencyIndex(level string) int {
	switch level {
	case models.FluencyBasic:
		return 0
	case models.FluencyIntermediate:
		return 1
	case models.FluencyFluent:
		return 2
	case models.FluencyNative:
		return 3
	default:
		return 0
	}
}

func ageGroupIndex(group string) int {
	switch group {
	case models.AgeGroupTeen:
		return 0
	case models.AgeGroupYoung:
		return 1
	case models.AgeGroupAdult:
		return 2
	case models.AgeGroupOlder:
		return 3
	default:
		return 1
	}
}

func hasCommonString(a, b []string) bool {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	for _, s := range a {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
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

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
