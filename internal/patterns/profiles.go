// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patterns

import (
	"fmt"
	"sort"
)

// Built-in profile names.
const (
	ProfileFarmToSchool  = "farm-to-school"
	ProfileSchoolGardens = "school-gardens"
)

var builtins = map[string]func() Spec{
	ProfileFarmToSchool:  farmToSchool,
	ProfileSchoolGardens: schoolGardens,
}

// Profile compiles the named built-in table.
func Profile(name string) (*Table, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern profile %q (available: %v)", name, Profiles())
	}
	return Compile(build())
}

// Profiles lists the built-in profile names.
func Profiles() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BuiltinSpec returns the uncompiled spec of a built-in profile, with any
// base profile already merged in. Useful as a starting point for a custom
// table file.
func BuiltinSpec(name string) (Spec, bool) {
	build, ok := builtins[name]
	if !ok {
		return Spec{}, false
	}
	s := build()
	if s.Extends != "" {
		s = merge(builtins[s.Extends](), s)
	}
	return s, true
}

func legislative(typ string, pats ...string) []EntityPattern {
	out := make([]EntityPattern, len(pats))
	for i, p := range pats {
		out[i] = EntityPattern{Type: typ, Pattern: p, Confidence: 0.95, Family: "legislative"}
	}
	return out
}

func heuristic(typ string, conf float64, pats ...string) []EntityPattern {
	out := make([]EntityPattern, len(pats))
	for i, p := range pats {
		out[i] = EntityPattern{Type: typ, Pattern: p, Confidence: conf, Family: "heuristic"}
	}
	return out
}

func concat(groups ...[]EntityPattern) []EntityPattern {
	var out []EntityPattern
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// defaultPredicates maps common predicates to ontology property names.
var defaultPredicates = map[string]string{
	"moved":       "moved_to",
	"established": "establishes",
	"requires":    "requires",
	"affects":     "affects",
	"manages":     "manages",
	"reports":     "reports_to",
	"located":     "located_in",
	"starts":      "starts_on",
	"ends":        "ends_on",
	"creates":     "creates",
	"amends":      "amends",
	"repeals":     "repeals",
}

func farmToSchool() Spec {
	preds := make(map[string]string, len(defaultPredicates))
	for k, v := range defaultPredicates {
		preds[k] = v
	}

	return Spec{
		Name: ProfileFarmToSchool,
		Entities: concat(
			legislative("PROGRAM",
				`farm to school program`, `coordinator program`, `meals program`, `agricultural program`),
			legislative("AGENCY",
				`department of education`, `department of agriculture`, `\bHDOA\b`, `\bDOE\b`,
				`\blegislature\b`, `state of hawaii`),
			legislative("GOAL",
				`thirty per cent`, `30%`, `\b2030\b`, `locally sourced`, `minimum percentage`),
			legislative("REPORTING",
				`annual report`, `reporting requirement`, `submit.*report`, `twenty days.*regular session`),
			legislative("STATUTE",
				`chapter \d+`, `section \d+-\d+`, `hawaii revised statutes`, `h\.b\. no\. \d+`),
			legislative("PURPOSE",
				`improve student health`, `develop.*agricultural workforce`, `enrich.*local food system`,
				`accelerate.*education`, `expand.*relationships`),
			legislative("LEGISLATIVE_BODY",
				`house of representatives`, `\bsenate\b`, `\blegislature\b`, `legislative body`),
			legislative("SESSION_IDENTIFIER",
				`\w+-\w+ legislature, \d{4}`, `regular session`, `special session`, `legislative session`),
			legislative("LOCATION",
				`public schools`, `\bschools\b`, `educational institutions`, `state facilities`, `education facilities`),
			legislative("PERSON",
				`\bstudents\b`, `\bkeiki\b`, `\bchildren\b`, `farm to school coordinator`, `\bcoordinator\b`),
			legislative("INTEREST_GROUP",
				`agricultural communities`, `farming communities`, `\bstakeholders\b`, `agricultural groups`, `farmer groups`),
			legislative("HEALTH_GOAL",
				`minimize diet-related diseases`, `improve.*health`, `prevent.*diseases`, `reduce.*obesity`, `reduce.*diabetes`),
			legislative("LEGAL_SECTION",
				`§\d+[A-Z]?`, `section \d+[A-Z]?`, `chapter \d+[A-Z]?`),
			heuristic("ORGANIZATION", 0.7,
				`\b\w+(?: \w+){0,3} (?:association|council|foundation|alliance|coalition|network)\b`),
			heuristic("PROFESSION", 0.75,
				`\bfarmers\b`, `\branchers\b`, `\bteachers\b`, `food service (?:workers|staff)`, `school nutrition staff`),
		),
		Relations: []RelationTemplate{
			{Family: "PROGRAM_MOVEMENT", Pattern: `move.*farm to school program.*from.*department of agriculture.*to.*department of education`,
				RelationType: "PROGRAM_MOVE", Subject: "Farm to School Program", Predicate: "moved from",
				Object: "Department of Agriculture", Object2: "Department of Education"},
			{Family: "PROGRAM_MOVEMENT", Pattern: `farm to school program.*(?:moved|transferred).*from.*department of agriculture.*to.*department of education`,
				RelationType: "PROGRAM_MOVE", Subject: "Farm to School Program", Predicate: "moved from",
				Object: "Department of Agriculture", Object2: "Department of Education"},
			{Family: "PROGRAM_MOVEMENT", Pattern: `transfer.*farm to school program.*from.*hdoa.*to.*doe`,
				RelationType: "PROGRAM_MOVE", Subject: "Farm to School Program", Predicate: "transferred from",
				Object: "HDOA", Object2: "DOE"},
			{Family: "GOAL_SETTING", Pattern: `thirty per cent.*locally sourced.*2030`,
				RelationType: "GOAL_SETTING", Subject: "Department of Education", Predicate: "set goal",
				Object: "30% locally sourced by 2030"},
			{Family: "GOAL_SETTING", Pattern: `target.*minimum percentage.*locally sourced.*public schools`,
				RelationType: "GOAL_SETTING", Subject: "Department of Education", Predicate: "established target",
				Object: "minimum percentage locally sourced"},
			{Family: "HEALTH_OBJECTIVES", Pattern: `minimize diet-related diseases in childhood`,
				RelationType: "HEALTH_GOAL", Subject: "Farm to School Program", Predicate: "aims to minimize",
				Object: "diet-related diseases in childhood"},
			{Family: "HEALTH_OBJECTIVES", Pattern: `improve.*health.*students`,
				RelationType: "HEALTH_GOAL", Subject: "Farm to School Program", Predicate: "improves",
				Object: "student health"},
			{Family: "REPORTING_REQUIREMENT", Pattern: `submit.*annual report.*legislature`,
				RelationType: "REPORTING", Subject: "Department of Education", Predicate: "must submit",
				Object: "annual report to legislature"},
			{Family: "REPORTING_REQUIREMENT", Pattern: `reporting requirement.*twenty days.*regular session`,
				RelationType: "REPORTING", Subject: "Department of Education", Predicate: "has requirement",
				Object: "reporting within 20 days of session"},
			{Family: "COORDINATOR_ROLE", Pattern: `farm to school coordinator.*headed by|headed by.*farm to school coordinator`,
				RelationType: "LEADERSHIP", Subject: "Farm to School Program", Predicate: "headed by",
				Object: "Farm to School Coordinator"},
			{Family: "COORDINATOR_ROLE", Pattern: `coordinator.*work.*collaboration.*stakeholders`,
				RelationType: "COLLABORATION", Subject: "Farm to School Coordinator", Predicate: "works with",
				Object: "stakeholders"},
			{Family: "COMMUNITY_ENGAGEMENT", Pattern: `agricultural communities.*collaboration`,
				RelationType: "COMMUNITY_ENGAGEMENT", Subject: "Farm to School Program", Predicate: "engages with",
				Object: "agricultural communities"},
			{Family: "COMMUNITY_ENGAGEMENT", Pattern: `expand.*relationships.*schools.*agricultural communities`,
				RelationType: "COMMUNITY_ENGAGEMENT", Subject: "Farm to School Program", Predicate: "expands relationships",
				Object: "between schools and agricultural communities"},
			{Family: "LEGAL_REFERENCE", Pattern: `§\d+[A-Z]?.*hawaii revised statutes`,
				RelationType: "LEGAL_REFERENCE", Subject: "Bill", Predicate: "references",
				Object: "Hawaii Revised Statutes section"},
			{Family: "LEGAL_REFERENCE", Pattern: `chapter \d+.*amended`,
				RelationType: "LEGAL_REFERENCE", Subject: "Bill", Predicate: "amends",
				Object: "Hawaii Revised Statutes chapter"},
			{Family: "PROGRAM_PURPOSES", Pattern: `purpose.*farm to school program.*shall be to.*improve student health`,
				RelationType: "PURPOSE", Subject: "Farm to School Program", Predicate: "purpose",
				Object: "improve student health"},
			{Family: "PROGRAM_PURPOSES", Pattern: `purpose.*farm to school program.*shall be to.*develop.*agricultural workforce`,
				RelationType: "PURPOSE", Subject: "Farm to School Program", Predicate: "purpose",
				Object: "develop agricultural workforce"},
			{Family: "PROGRAM_PURPOSES", Pattern: `purpose.*farm to school program.*shall be to.*enrich.*local food system`,
				RelationType: "PURPOSE", Subject: "Farm to School Program", Predicate: "purpose",
				Object: "enrich local food system"},
			{Family: "PROGRAM_PURPOSES", Pattern: `purpose.*farm to school program.*shall be to.*accelerate.*education`,
				RelationType: "PURPOSE", Subject: "Farm to School Program", Predicate: "purpose",
				Object: "accelerate garden and farm-based education"},
			{Family: "PROGRAM_PURPOSES", Pattern: `purpose.*farm to school program.*shall be to.*expand.*relationships`,
				RelationType: "PURPOSE", Subject: "Farm to School Program", Predicate: "purpose",
				Object: "expand relationships between schools and agricultural communities"},
		},
		Aliases: []AliasGroup{
			{Canonical: "department of education", Aliases: []string{"doe", "dept of education", "education department", "department"}},
			{Canonical: "department of agriculture", Aliases: []string{"hdoa", "dept of agriculture", "agriculture department"}},
			{Canonical: "farm to school program", Aliases: []string{"hawaii farm to school program", "farm-to-school program"}},
			{Canonical: "house of representatives", Aliases: []string{"house", "representatives", "legislative body"}},
			{Canonical: "legislature", Aliases: []string{"legislative body", "legislative branch", "state legislature"}},
			{Canonical: "public schools", Aliases: []string{"schools", "educational institutions", "state schools"}},
			{Canonical: "agricultural communities", Aliases: []string{"farming communities", "agricultural groups", "farmer groups"}},
		},
		Predicates: preds,
	}
}

func schoolGardens() Spec {
	return Spec{
		Name:    ProfileSchoolGardens,
		Extends: ProfileFarmToSchool,
		Entities: concat(
			legislative("PROGRAM", `school garden program`),
			legislative("GOAL", `\$200,000`, `fiscal year 2022-2023`),
			legislative("STATUTE", `s\.b\. no\. \d+`, `act 175`),
			legislative("PURPOSE",
				`protecting student health`, `recovering.*academic achievement`, `strengthening social-emotional well-being`),
			legislative("LEGISLATIVE_BODY", `the senate`),
			legislative("LOCATION", `school campuses`),
			legislative("PERSON", `school garden coordinator`, `\badults\b`),
			legislative("HEALTH_GOAL",
				`protecting student health`, `mental and physical health`, `social-emotional well-being`),
			legislative("POSITION",
				`school garden coordinator`, `garden coordinator`, `coordinator position`, `full-time equivalent`, `1\.0 fte`),
			legislative("FUNDING",
				`\$200,000`, `fiscal year 2022-2023`, `appropriation`, `general revenues`, `startup resources`),
			legislative("EDUCATIONAL_SPACE",
				`learning gardens`, `school gardens`, `outdoor educational spaces`, `garden programs`, `farm-based education`),
		),
		Relations: []RelationTemplate{
			{Family: "HEALTH_OBJECTIVES", Pattern: `protecting student health`,
				RelationType: "HEALTH_GOAL", Subject: "School Gardens", Predicate: "protects", Object: "student health"},
			{Family: "COORDINATOR_ROLE", Pattern: `school garden coordinator.*position`,
				RelationType: "LEADERSHIP", Subject: "Department of Education", Predicate: "establishes position",
				Object: "School Garden Coordinator"},
			{Family: "LEGAL_REFERENCE", Pattern: `act 175.*session laws`,
				RelationType: "LEGAL_REFERENCE", Subject: "Bill", Predicate: "references",
				Object: "Act 175, Session Laws of Hawaii 2021"},
			{Family: "FUNDING_ALLOCATION", Pattern: `appropriated.*\$200,000.*fiscal year 2022-2023`,
				RelationType: "FUNDING", Subject: "State of Hawaii", Predicate: "appropriates",
				Object: "$200,000 for fiscal year 2022-2023"},
			{Family: "FUNDING_ALLOCATION", Pattern: `fund.*position.*school garden coordinator`,
				RelationType: "FUNDING", Subject: "State of Hawaii", Predicate: "funds",
				Object: "School Garden Coordinator position"},
			{Family: "EDUCATIONAL_BENEFITS", Pattern: `learning gardens.*school campuses.*protecting student health`,
				RelationType: "EDUCATIONAL_BENEFIT", Subject: "Learning Gardens", Predicate: "protects", Object: "student health"},
			{Family: "EDUCATIONAL_BENEFITS", Pattern: `outdoor educational spaces.*improve.*learning`,
				RelationType: "EDUCATIONAL_BENEFIT", Subject: "Outdoor Educational Spaces", Predicate: "improves",
				Object: "learning outcomes"},
			{Family: "EDUCATIONAL_BENEFITS", Pattern: `hands-on learning opportunities`,
				RelationType: "EDUCATIONAL_BENEFIT", Subject: "School Gardens", Predicate: "provides",
				Object: "hands-on learning opportunities"},
		},
		Aliases: []AliasGroup{
			{Canonical: "senate", Aliases: []string{"the senate", "legislative body", "legislative branch"}},
			{Canonical: "school garden coordinator", Aliases: []string{"garden coordinator", "coordinator"}},
			{Canonical: "school gardens", Aliases: []string{"learning gardens", "garden programs", "educational gardens"}},
		},
	}
}
