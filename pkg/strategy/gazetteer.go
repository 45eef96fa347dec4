package strategy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//nolint:gochecknoglobals // compiled once
var (
	reNonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	reSpaces  = regexp.MustCompile(`\s+`)
)

// NormalizeText lowercases, folds accents and replaces every run of non-alphanumerics with one space.
func NormalizeText(s string) (normalized string) {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err == nil {
		s = folded
	}

	normalized = strings.ToLower(s)
	normalized = reNonWord.ReplaceAllString(normalized, " ")
	normalized = reSpaces.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)
	return normalized
}

// term is a gazetteer entry: a display name and the normalized phrases that identify it.
type term struct {
	Name     string
	Variants []string
}

// SkillVariants returns the normalized phrases matched for a skill, including known aliases.
func SkillVariants(skill string) (variants []string) {
	base := NormalizeText(skill)
	if base == "" {
		return variants
	}
	for _, t := range skillTerms {
		if NormalizeText(t.Name) == base || containsString(t.Variants, base) {
			variants = append(variants, t.Variants...)
			return variants
		}
	}
	variants = []string{base}
	return variants
}

func containsString(list []string, s string) (ok bool) {
	for _, item := range list {
		if item == s {
			ok = true
			return ok
		}
	}
	return ok
}

// findTerms returns the gazetteer names whose variants occur as whole phrases in normalized text,
// ordered by first occurrence.
func findTerms(normalized string, terms []term) (names []string) {
	if normalized == "" {
		return names
	}
	padded := " " + normalized + " "

	type hit struct {
		name string
		pos  int
	}
	var hits []hit
	for _, t := range terms {
		best := -1
		for _, v := range t.Variants {
			pos := strings.Index(padded, " "+v+" ")
			if pos >= 0 && (best < 0 || pos < best) {
				best = pos
			}
		}
		if best >= 0 {
			hits = append(hits, hit{name: t.Name, pos: best})
		}
	}

	// insertion sort keeps gazetteer order for ties
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	names = make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.name)
	}
	return names
}

//nolint:gochecknoglobals // gazetteer
var skillTerms = []term{
	{"Go", []string{"go", "golang"}},
	{"Python", []string{"python"}},
	{"Java", []string{"java"}},
	{"JavaScript", []string{"javascript", "js"}},
	{"TypeScript", []string{"typescript", "ts"}},
	{"Rust", []string{"rust"}},
	{"Ruby", []string{"ruby"}},
	{"PHP", []string{"php"}},
	{"Kotlin", []string{"kotlin"}},
	{"Swift", []string{"swift"}},
	{"Scala", []string{"scala"}},
	{"SQL", []string{"sql"}},
	{"PostgreSQL", []string{"postgresql", "postgres"}},
	{"MySQL", []string{"mysql"}},
	{"MongoDB", []string{"mongodb", "mongo"}},
	{"Redis", []string{"redis"}},
	{"Kafka", []string{"kafka", "apache kafka"}},
	{"RabbitMQ", []string{"rabbitmq"}},
	{"Elasticsearch", []string{"elasticsearch"}},
	{"Docker", []string{"docker"}},
	{"Kubernetes", []string{"kubernetes", "k8s"}},
	{"Terraform", []string{"terraform"}},
	{"Ansible", []string{"ansible"}},
	{"AWS", []string{"aws", "amazon web services"}},
	{"Azure", []string{"azure"}},
	{"GCP", []string{"gcp", "google cloud", "google cloud platform"}},
	{"Linux", []string{"linux"}},
	{"Git", []string{"git"}},
	{"CI/CD", []string{"ci cd", "cicd"}},
	{"Jenkins", []string{"jenkins"}},
	{"React", []string{"react", "reactjs", "react js"}},
	{"Angular", []string{"angular"}},
	{"Vue", []string{"vue", "vuejs", "vue js"}},
	{"Node.js", []string{"node js", "nodejs"}},
	{"Django", []string{"django"}},
	{"Spring", []string{"spring", "spring boot"}},
	{"gRPC", []string{"grpc"}},
	{"REST", []string{"rest api", "restful", "rest apis"}},
	{"GraphQL", []string{"graphql"}},
	{"Microservices", []string{"microservices"}},
	{"Machine Learning", []string{"machine learning", "ml"}},
	{"TensorFlow", []string{"tensorflow"}},
	{"PyTorch", []string{"pytorch"}},
	{"Pandas", []string{"pandas"}},
	{"Spark", []string{"spark", "apache spark"}},
	{"Hadoop", []string{"hadoop"}},
	{"Tableau", []string{"tableau"}},
	{"Power BI", []string{"power bi", "powerbi"}},
	{"Excel", []string{"excel"}},
	{"Agile", []string{"agile"}},
	{"Scrum", []string{"scrum"}},
	{"Jira", []string{"jira"}},
	{"Project Management", []string{"project management"}},
	{"Stakeholder Management", []string{"stakeholder management"}},
}

//nolint:gochecknoglobals // gazetteer
var locationTerms = []term{
	{"London", []string{"london"}},
	{"Manchester", []string{"manchester"}},
	{"Birmingham", []string{"birmingham"}},
	{"Leeds", []string{"leeds"}},
	{"Glasgow", []string{"glasgow"}},
	{"Edinburgh", []string{"edinburgh"}},
	{"Bristol", []string{"bristol"}},
	{"Dublin", []string{"dublin"}},
	{"Paris", []string{"paris"}},
	{"Berlin", []string{"berlin"}},
	{"Munich", []string{"munich", "munchen"}},
	{"Amsterdam", []string{"amsterdam"}},
	{"Brussels", []string{"brussels"}},
	{"Madrid", []string{"madrid"}},
	{"Barcelona", []string{"barcelona"}},
	{"Lisbon", []string{"lisbon"}},
	{"Rome", []string{"rome"}},
	{"Milan", []string{"milan"}},
	{"Zurich", []string{"zurich"}},
	{"Geneva", []string{"geneva"}},
	{"Vienna", []string{"vienna"}},
	{"Prague", []string{"prague"}},
	{"Warsaw", []string{"warsaw"}},
	{"Stockholm", []string{"stockholm"}},
	{"Oslo", []string{"oslo"}},
	{"Copenhagen", []string{"copenhagen"}},
	{"Helsinki", []string{"helsinki"}},
	{"New York", []string{"new york", "nyc"}},
	{"San Francisco", []string{"san francisco"}},
	{"Seattle", []string{"seattle"}},
	{"Boston", []string{"boston"}},
	{"Chicago", []string{"chicago"}},
	{"Austin", []string{"austin"}},
	{"Toronto", []string{"toronto"}},
	{"Vancouver", []string{"vancouver"}},
	{"Sydney", []string{"sydney"}},
	{"Melbourne", []string{"melbourne"}},
	{"Singapore", []string{"singapore"}},
	{"Tokyo", []string{"tokyo"}},
	{"Dubai", []string{"dubai"}},
	{"Bangalore", []string{"bangalore", "bengaluru"}},
	{"Mumbai", []string{"mumbai"}},
	{"United Kingdom", []string{"united kingdom", "uk", "england", "scotland", "wales"}},
	{"Ireland", []string{"ireland"}},
	{"France", []string{"france"}},
	{"Germany", []string{"germany"}},
	{"Netherlands", []string{"netherlands"}},
	{"Belgium", []string{"belgium"}},
	{"Spain", []string{"spain"}},
	{"Portugal", []string{"portugal"}},
	{"Italy", []string{"italy"}},
	{"Switzerland", []string{"switzerland"}},
	{"Austria", []string{"austria"}},
	{"Poland", []string{"poland"}},
	{"Sweden", []string{"sweden"}},
	{"Norway", []string{"norway"}},
	{"Denmark", []string{"denmark"}},
	{"Finland", []string{"finland"}},
	{"United States", []string{"united states", "usa"}},
	{"Canada", []string{"canada"}},
	{"Australia", []string{"australia"}},
	{"India", []string{"india"}},
	{"Japan", []string{"japan"}},
}
