package dashboard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Category is one filter checkbox on the content-filtering page.
type Category struct {
	Name       string
	CheckboxID string
	Blocked    bool
}

// Toggle is a single planned click: set Category to Block.
type Toggle struct {
	Category Category
	Block    bool
}

// KnownCategories is the fallback list used when the page yields no
// categories to list, e.g. for sample config generation while offline.
var KnownCategories = []string{
	"Adult Themes", "Alcohol & Tobacco", "Anonymizers", "Arts & Entertainment",
	"Blogs", "Chat", "Chemicals", "Drugs", "Dynamic DNS", "Education",
	"Gambling", "Games", "Hacking", "Lingerie & Swimwear", "News & Media",
	"Phishing", "Proxies", "Sex Education", "Sexual & Erotica", "Shopping",
	"Social Networking", "Software & Malware", "Streaming Media", "Video Sharing",
	"Violence",
}

// filteringLevels are label texts on the same page that are not categories.
var filteringLevels = map[string]bool{
	"low": true, "medium": true, "high": true, "custom": true, "none": true,
}

// ParseCategoryPage extracts categories from the server-rendered filtering
// page HTML, in DOM order. Blocked reflects the checked attribute at page
// load; use Session.CheckboxStates for live state after clicking.
func ParseCategoryPage(html string) ([]Category, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse filtering page: %w", err)
	}

	var categories []Category
	seen := make(map[string]bool)

	doc.Find(CategoryLabel).Each(func(_ int, label *goquery.Selection) {
		name := strings.TrimSpace(label.Text())
		id, ok := label.Attr("for")
		if name == "" || !ok || !strings.HasPrefix(id, categoryIDPrefix) {
			return
		}
		if filteringLevels[strings.ToLower(name)] || seen[name] {
			return
		}
		seen[name] = true

		checked := false
		checkbox := doc.Find(fmt.Sprintf("input[id=%q]", id))
		if checkbox.Length() > 0 {
			_, checked = checkbox.Attr("checked")
		}

		categories = append(categories, Category{
			Name:       name,
			CheckboxID: id,
			Blocked:    checked,
		})
	})

	return categories, nil
}

// PlanToggles returns the clicks needed to make exactly the categories in
// blockList blocked. Categories already in the desired state produce no
// toggle. Order follows the page's category order.
func PlanToggles(available []Category, blockList []string) []Toggle {
	block := make(map[string]bool, len(blockList))
	for _, name := range blockList {
		block[name] = true
	}

	var toggles []Toggle
	for _, cat := range available {
		want := block[cat.Name]
		if cat.Blocked != want {
			toggles = append(toggles, Toggle{Category: cat, Block: want})
		}
	}
	return toggles
}

// MissingCategories lists configured names not present on the page, so the
// caller can warn about stale config.
func MissingCategories(available []Category, configured []string) []string {
	onPage := make(map[string]bool, len(available))
	for _, cat := range available {
		onPage[cat.Name] = true
	}

	var missing []string
	for _, name := range configured {
		if !onPage[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

var networkIDPattern = regexp.MustCompile(`/settings/(\d+)/content_filtering`)

// ParseNetworkIDs extracts network ids from the settings overview page by
// scanning links to per-network filtering pages.
func ParseNetworkIDs(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse settings page: %w", err)
	}

	var ids []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := networkIDPattern.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	})
	return ids, nil
}
