package extract

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// EntityPattern is one dimension of the entity catalogue: a named category
// and the expression that recognizes its members.
type EntityPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// Catalogue is the ordered list of entity dimensions. Order matters only for
// deterministic iteration; matching is independent per dimension.
type Catalogue []EntityPattern

var (
	rareEarthVariants = regexp.MustCompile(`RARE[\s-]?EARTHS?`)
	separatorRuns     = regexp.MustCompile(`[\s-]+`)
)

// DefaultCatalogue returns the built-in entity-type patterns. Dimensions are
// what the narrative-coherence gate counts, so categories are kept narrow:
// a country mention and a supply-chain mention are different signals even
// when they appear in the same headline.
func DefaultCatalogue() Catalogue {
	return compileCatalogue([]rawPattern{
		{"countries", `\b(China|Chinese|Russia|Russian|Iran|Iranian|Israel|Ukraine|Taiwan|North Korea|DPRK|United States|USA|US|Myanmar|India|European Union|EU)\b`},
		{"threat_actors", `\b(APT\d*|Lazarus|Cozy Bear|Fancy Bear|Salt Typhoon|Volt Typhoon|Sandworm|Kimsuky|state-sponsored|nation-state)\b`},
		{"malware", `\b(ransomware|malware|trojan|backdoor|rootkit|spyware|wiper)\b`},
		{"vulnerabilities", `\b(CVE-\d{4}-\d{4,7}|zero-day|zero day|0day|vulnerability|exploit)\b`},
		{"techniques", `\b(phishing|spear-phishing|social engineering|watering hole|DDoS|credential stuffing|attack|breach|hack|intrusion)\b`},
		{"sectors", `\b(healthcare|financial|infrastructure|energy|telecom|telecommunications|government|defense|military)\b`},
		{"tech", `\b(Ivanti|VMware|Cisco|Microsoft|Google|Apple|Huawei|5G|AI)\b`},
		{"cyber_ops", `\b(cyber attack|cyber espionage|cyber[\s-]?threat|data breach|network intrusion|hacking campaign|compromise)\b`},
		{"supply_chain", `\b(semiconductor|chip|TSMC|rare[\s-]?earths?|lithium|cobalt|gallium|germanium|supply chain|fab|foundry|wafer)\b`},
		{"economic", `\b(sanctions|sanction|tariff|export control|trade war|trade spat|CFIUS|Entity List|forced technology transfer|economic warfare)\b`},
		{"military", `\b(drone|UAV|UAS|missile|satellite|ASAT|military operation|combat|military warfare|space warfare)\b`},
	})
}

type rawPattern struct {
	Name    string
	Pattern string
}

func compileCatalogue(raw []rawPattern) Catalogue {
	catalogue := make(Catalogue, 0, len(raw))
	for _, rp := range raw {
		catalogue = append(catalogue, EntityPattern{
			Name:    rp.Name,
			Pattern: regexp.MustCompile(`(?i)` + rp.Pattern),
		})
	}
	return catalogue
}

type catalogueFile struct {
	Patterns []struct {
		Name    string `yaml:"name"`
		Pattern string `yaml:"pattern"`
	} `yaml:"patterns"`
}

// LoadCatalogue reads a YAML pattern file. Entries with a name already in
// the default catalogue replace that dimension; new names are appended, so a
// deployment can extend the catalogue without recompiling.
func LoadCatalogue(path string) (Catalogue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern catalogue: %w", err)
	}

	var file catalogueFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse pattern catalogue: %w", err)
	}
	if len(file.Patterns) == 0 {
		return nil, fmt.Errorf("pattern catalogue %s contains no patterns", path)
	}

	catalogue := DefaultCatalogue()
	index := make(map[string]int, len(catalogue))
	for i, ep := range catalogue {
		index[ep.Name] = i
	}

	for _, entry := range file.Patterns {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("pattern catalogue entry has empty name")
		}
		compiled, err := regexp.Compile(`(?i)` + entry.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", name, err)
		}
		if i, ok := index[name]; ok {
			catalogue[i].Pattern = compiled
			continue
		}
		index[name] = len(catalogue)
		catalogue = append(catalogue, EntityPattern{Name: name, Pattern: compiled})
	}

	return catalogue, nil
}

// NormalizeEntity canonicalizes one matched entity: uppercase, known synonym
// variants merged, whitespace and hyphen runs collapsed to single spaces.
func NormalizeEntity(match string) string {
	normalized := strings.ToUpper(strings.TrimSpace(match))
	normalized = rareEarthVariants.ReplaceAllString(normalized, "RARE EARTH")
	normalized = separatorRuns.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}
