package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"partymatch/internal/models"
)

func baseProfile(id string) *models.PlayerProfile {
	return &models.PlayerProfile{
		ID:             id,
		Region:         "NA",
		Languages:      []string{"en"},
		TimezoneOffset: 0,
		Experience:     50,
		PlayStyle:      models.PlayStyleCasual,
		PreferredRoles: []string{models.RoleTank},
		Availability: models.Availability{
			Days:       []int{0, 1, 2, 3, 4, 5, 6},
			TimeRanges: []models.TimeRange{{Start: 18, End: 23}},
		},
		Ratings: models.Ratings{Overall: 7, Teamwork: 7, Communication: 7, Reliability: 7},
		History: models.PlayHistory{TotalGames: 20, CompletionRate: 0.9, AverageSessionLength: 3},
	}
}

func extendedInfo() *models.ExtendedInfo {
	return &models.ExtendedInfo{
		Skills: models.PlayerSkills{Roleplay: 5, Combat: 5, Strategy: 5, Teamwork: 5, Leadership: 5},
		Behavior: models.PlayerBehavior{
			ToxicityReports:     0,
			SessionCompletion:   0.9,
			DisconnectionRate:   0.05,
			ActiveParticipation: 8,
		},
		CampaignPreferences: models.CampaignPreferences{
			Styles:         []string{"combat", "roleplay"},
			Tones:          []string{"serious"},
			CampaignLength: models.CampaignLengthMedium,
			MaturityRating: models.MaturityTeen,
			FantasyLevel:   models.FantasyMedium,
			PvP:            false,
		},
		Equipment: models.Equipment{
			HasWebcam:     true,
			HasMicrophone: true,
			InternetSpeed: 100,
			DeviceType:    models.DeviceDesktop,
		},
		SocialPreferences: models.SocialPreferences{
			VoiceChatPreferred: true,
			TextChatPreferred:  true,
			LanguageFluency:    map[string]string{"en": models.FluencyNative},
			AgeGroup:           models.AgeGroupAdult,
			GroupSize:          models.GroupSizeRange{Min: 3, Max: 6},
		},
	}
}

func TestBaseScore_IdealPair(t *testing.T) {
	p1 := baseProfile("p1")
	p2 := baseProfile("p2")
	p2.PreferredRoles = []string{models.RoleHealer}

	score := BaseScore(p1, p2)
	assert.InDelta(t, 1.0, score, 0.001)
}

func TestBaseScore_TimezoneExtremes(t *testing.T) {
	p1 := baseProfile("p1")
	p2 := baseProfile("p2")
	p2.PreferredRoles = []string{models.RoleHealer}
	p2.TimezoneOffset = 12

	// The timezone sub-score drops from 1 to 0, costing its full weight.
	score := BaseScore(p1, p2)
	assert.InDelta(t, 1.0-0.15, score, 0.001)
}

func TestScore_Symmetry(t *testing.T) {
	p1 := baseProfile("p1")
	p2 := baseProfile("p2")
	p2.Region = "EU"
	p2.Languages = []string{"de", "en"}
	p2.TimezoneOffset = 5
	p2.Experience = 80
	p2.PlayStyle = models.PlayStyleHardcore
	p2.PreferredRoles = []string{models.RoleDPS, models.RoleSupport}
	p2.Ratings = models.Ratings{Overall: 4, Teamwork: 9, Communication: 6, Reliability: 5}

	assert.Equal(t, Score(p1, p2), Score(p2, p1))

	p1.Extended = extendedInfo()
	p2.Extended = extendedInfo()
	p2.Extended.Skills.Combat = 9
	p2.Extended.SocialPreferences.AgeGroup = models.AgeGroupYoung

	assert.Equal(t, Score(p1, p2), Score(p2, p1))
}

func TestScore_Determinism(t *testing.T) {
	p1 := baseProfile("p1")
	p2 := baseProfile("p2")
	p1.Extended = extendedInfo()
	p2.Extended = extendedInfo()

	first := Score(p1, p2)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(p1, p2))
	}
}

func TestScore_Bounded(t *testing.T) {
	// Deliberately hostile pairs must still land in [0,1].
	p1 := baseProfile("p1")
	p1.Ratings = models.Ratings{Overall: 0, Teamwork: 0, Communication: 0, Reliability: 0}
	p1.Experience = 0
	p1.TimezoneOffset = -12

	p2 := baseProfile("p2")
	p2.Region = "ASIA"
	p2.Languages = []string{"jp"}
	p2.Ratings = models.Ratings{Overall: 10, Teamwork: 10, Communication: 10, Reliability: 10}
	p2.Experience = 100
	p2.TimezoneOffset = 12
	p2.Availability = models.Availability{}

	score := Score(p1, p2)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)

	p1.Extended = extendedInfo()
	p1.Extended.Behavior.ToxicityReports = 50
	p1.Extended.Skills = models.PlayerSkills{Roleplay: 1, Combat: 1, Strategy: 1, Teamwork: 1, Leadership: 1}
	p2.Extended = extendedInfo()
	p2.Extended.Skills = models.PlayerSkills{Roleplay: 10, Combat: 10, Strategy: 10, Teamwork: 10, Leadership: 10}

	score = Score(p1, p2)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestRoleComplement(t *testing.T) {
	tests := []struct {
		name     string
		roles1   []string
		roles2   []string
		expected float64
	}{
		{
			name:     "tank and healer covered",
			roles1:   []string{models.RoleTank},
			roles2:   []string{models.RoleHealer},
			expected: 1,
		},
		{
			name:     "one player covers both",
			roles1:   []string{models.RoleTank, models.RoleHealer},
			roles2:   []string{models.RoleDPS},
			expected: 1,
		},
		{
			name:     "no healer",
			roles1:   []string{models.RoleTank},
			roles2:   []string{models.RoleDPS},
			expected: 0.5,
		},
		{
			name:     "single shared role",
			roles1:   []string{models.RoleDPS},
			roles2:   []string{models.RoleDPS},
			expected: 0.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, roleComplement(tt.roles1, tt.roles2))
		})
	}
}

func TestAvailabilityOverlap(t *testing.T) {
	full := models.Availability{
		Days:       []int{0, 1, 2, 3, 4, 5, 6},
		TimeRanges: []models.TimeRange{{Start: 18, End: 23}},
	}
	assert.InDelta(t, 1.0, availabilityOverlap(full, full), 0.001)

	// Adjacent ranges do not overlap.
	a1 := models.Availability{Days: []int{1}, TimeRanges: []models.TimeRange{{Start: 10, End: 12}}}
	a2 := models.Availability{Days: []int{2}, TimeRanges: []models.TimeRange{{Start: 12, End: 14}}}
	assert.InDelta(t, 0.0, availabilityOverlap(a1, a2), 0.001)

	// One shared day, overlapping range.
	a3 := models.Availability{Days: []int{1, 2}, TimeRanges: []models.TimeRange{{Start: 11, End: 13}}}
	got := availabilityOverlap(a1, a3)
	assert.InDelta(t, (1.0/7+1)/2, got, 0.001)
}

func TestRatingCompatibility(t *testing.T) {
	r := models.Ratings{Overall: 7, Teamwork: 7, Communication: 7, Reliability: 7}
	assert.Equal(t, 1.0, ratingCompatibility(r, r))

	// Worst axis dominates: a 1-point gap on one axis costs half.
	r2 := r
	r2.Communication = 6
	assert.InDelta(t, 0.5, ratingCompatibility(r, r2), 0.001)

	// Gaps beyond the 2-point window clamp to zero.
	r3 := r
	r3.Overall = 1
	assert.Equal(t, 0.0, ratingCompatibility(r, r3))
}

func TestSkillCompatibility(t *testing.T) {
	s := models.PlayerSkills{Roleplay: 5, Combat: 5, Strategy: 5, Teamwork: 5, Leadership: 5}
	assert.Equal(t, 1.0, skillCompatibility(s, s))

	s2 := models.PlayerSkills{Roleplay: 10, Combat: 10, Strategy: 10, Teamwork: 10, Leadership: 10}
	assert.InDelta(t, 0.0, skillCompatibility(s, s2), 0.001)
}

func TestBehaviorCompatibility(t *testing.T) {
	clean := models.PlayerBehavior{
		ToxicityReports:     0,
		SessionCompletion:   1,
		DisconnectionRate:   0,
		ActiveParticipation: 10,
	}
	assert.InDelta(t, 1.0, behaviorCompatibility(clean, clean), 0.001)

	// Twenty combined toxicity reports zero out the toxicity term.
	toxic := clean
	toxic.ToxicityReports = 20
	got := behaviorCompatibility(clean, toxic)
	assert.InDelta(t, 0.4+0.2, got, 0.001)
}

func TestCampaignCompatibility(t *testing.T) {
	c := models.CampaignPreferences{
		Styles:         []string{"combat", "roleplay"},
		Tones:          []string{"serious"},
		CampaignLength: models.CampaignLengthMedium,
		MaturityRating: models.MaturityTeen,
		FantasyLevel:   models.FantasyMedium,
	}
	assert.InDelta(t, 1.0, campaignCompatibility(c, c), 0.001)

	other := c
	other.Styles = []string{"puzzle"}
	other.CampaignLength = models.CampaignLengthLong
	other.FantasyLevel = models.FantasyHigh
	// style 0, tone 1, length 0, maturity 1, fantasy 0.5, pvp 1 => 3.5/6
	assert.InDelta(t, 3.5/6, campaignCompatibility(c, other), 0.001)
}

func TestTechnicalCompatibility(t *testing.T) {
	e := models.Equipment{HasWebcam: true, HasMicrophone: true, InternetSpeed: 100, DeviceType: models.DeviceDesktop}
	assert.InDelta(t, 1.0, technicalCompatibility(e, e), 0.001)

	slow := e
	slow.InternetSpeed = 25
	slow.DeviceType = models.DeviceMobile
	// internet 0.5*0.4, device 0.5*0.3, peripherals 1*0.3
	assert.InDelta(t, 0.2+0.15+0.3, technicalCompatibility(e, slow), 0.001)
}

func TestSocialCompatibility(t *testing.T) {
	s := models.SocialPreferences{
		VoiceChatPreferred: true,
		TextChatPreferred:  true,
		LanguageFluency:    map[string]string{"en": models.FluencyNative},
		AgeGroup:           models.AgeGroupAdult,
		GroupSize:          models.GroupSizeRange{Min: 3, Max: 6},
	}
	assert.InDelta(t, 1.0, socialCompatibility(s, s), 0.001)

	// Adjacent age bracket scores half; weaker speaker caps the
	// language term.
	other := s
	other.AgeGroup = models.AgeGroupYoung
	other.LanguageFluency = map[string]string{"en": models.FluencyBasic}
	got := socialCompatibility(s, other)
	assert.InDelta(t, 0.3+0.0+0.1+0.2, got, 0.001)

	// No shared language at all.
	other.LanguageFluency = map[string]string{"fr": models.FluencyNative}
	got = socialCompatibility(s, other)
	assert.InDelta(t, 0.3+0.0+0.1+0.2, got, 0.001)
}

func TestExtendedScore_UsesRecombination(t *testing.T) {
	p1 := baseProfile("p1")
	p2 := baseProfile("p2")
	p2.PreferredRoles = []string{models.RoleHealer}
	p1.Extended = extendedInfo()
	p2.Extended = extendedInfo()

	base := BaseScore(p1, p2)
	ext := ExtendedScore(p1, p2)

	// Identical extended blocks score near 1 on every extended
	// dimension except behavior, so the recombined score sits between
	// the behavior-weighted floor and the base.
	assert.Greater(t, ext, base*0.3)
	assert.LessOrEqual(t, ext, 1.0)
	assert.Equal(t, ext, Score(p1, p2))
}

func TestScore_MixedProfilesFallBackToBase(t *testing.T) {
	p1 := baseProfile("p1")
	p2 := baseProfile("p2")
	p1.Extended = extendedInfo()

	assert.Equal(t, BaseScore(p1, p2), Score(p1, p2))
}
