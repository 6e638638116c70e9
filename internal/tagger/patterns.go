package tagger

import "regexp"

// Tag names assigned by the tagger.
const (
	TagDxConfirmed = "dx_confirmed"
	TagSurgery     = "surgery"
	TagAdmission   = "admission"
	TagFollowUp    = "follow_up"
	TagMedication  = "medication"
	TagNursing     = "nursing"
	TagRoutineMed  = "routine_med"

	// Meta tags computed by predicates after the category pass.
	TagImportant = "important"
	TagExclude   = "exclude"
)

// category is one ordered entry of the tag rule table: a tag name and
// the patterns that assign it. Patterns run against lowercased text.
type category struct {
	tag      string
	patterns []*regexp.Regexp
}

// categories is the ordered tag rule table. Order is part of the
// contract: every category is evaluated, and a single event may
// receive multiple tags. Keeping the rules as data makes the table
// easy to test exhaustively and to extend without touching dispatch.
var categories = []category{
	{
		tag: TagSurgery,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`수술`),
			regexp.MustCompile(`절제술|적출술|문합술|조성술|성형술`),
			regexp.MustCompile(`시술`),
			regexp.MustCompile(`operation|resection|excision`),
		},
	},
	{
		tag: TagAdmission,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`입원`),
			regexp.MustCompile(`퇴원`),
			regexp.MustCompile(`중환자실|입실`),
			regexp.MustCompile(`admission|discharge`),
		},
	},
	{
		tag: TagFollowUp,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`추적\s*검사|추적\s*관찰`),
			regexp.MustCompile(`경과\s*관찰`),
			regexp.MustCompile(`재진|외래\s*예약`),
			regexp.MustCompile(`f/u|follow[\s-]?up`),
		},
	},
	{
		tag: TagMedication,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`투약|투여`),
			regexp.MustCompile(`주사|수액`),
			regexp.MustCompile(`항암제|항생제`),
			regexp.MustCompile(`injection|infusion`),
		},
	},
	{
		tag: TagNursing,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`간호\s*기록|간호\s*정보`),
			regexp.MustCompile(`활력\s*징후|v/s`),
			regexp.MustCompile(`욕창|낙상\s*평가`),
			regexp.MustCompile(`nursing\s*note`),
		},
	},
	{
		tag: TagRoutineMed,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`정기\s*처방|상용약`),
			regexp.MustCompile(`같은\s*약\s*처방|동일\s*처방`),
			regexp.MustCompile(`복용\s*중인?\s*약`),
			regexp.MustCompile(`routine\s*medication|refill`),
		},
	},
}
