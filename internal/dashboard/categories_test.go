package dashboard

import (
	"reflect"
	"testing"
)

// filteringPageHTML mimics the server-rendered content-filtering page: a
// level selector whose labels must be ignored, plus category checkboxes.
const filteringPageHTML = `
<html><body>
<div id="filtering-levels">
  <input type="radio" value="high" id="level-high"><label for="level-high">High</label>
  <input type="radio" value="custom" id="level-custom" checked><label for="level-custom">Custom</label>
</div>
<div id="custom-setting">
  <div class="category">
    <input type="checkbox" id="dt_category[4]" checked>
    <label for="dt_category[4]">Gambling</label>
  </div>
  <div class="category">
    <input type="checkbox" id="dt_category[7]">
    <label for="dt_category[7]">Social Networking</label>
  </div>
  <div class="category">
    <input type="checkbox" id="dt_category[9]" checked>
    <label for="dt_category[9]">Video Sharing</label>
  </div>
</div>
</body></html>`

func TestParseCategoryPage(t *testing.T) {
	categories, err := ParseCategoryPage(filteringPageHTML)
	if err != nil {
		t.Fatalf("ParseCategoryPage returned error: %v", err)
	}

	want := []Category{
		{Name: "Gambling", CheckboxID: "dt_category[4]", Blocked: true},
		{Name: "Social Networking", CheckboxID: "dt_category[7]", Blocked: false},
		{Name: "Video Sharing", CheckboxID: "dt_category[9]", Blocked: true},
	}
	if !reflect.DeepEqual(categories, want) {
		t.Fatalf("unexpected categories:\n got %+v\nwant %+v", categories, want)
	}
}

func TestParseCategoryPageEmpty(t *testing.T) {
	categories, err := ParseCategoryPage(`<html><body><p>maintenance</p></body></html>`)
	if err != nil {
		t.Fatalf("ParseCategoryPage returned error: %v", err)
	}
	if len(categories) != 0 {
		t.Fatalf("expected no categories, got %+v", categories)
	}
}

func TestPlanToggles(t *testing.T) {
	available := []Category{
		{Name: "Gambling", CheckboxID: "dt_category[4]", Blocked: true},
		{Name: "Social Networking", CheckboxID: "dt_category[7]", Blocked: false},
		{Name: "Video Sharing", CheckboxID: "dt_category[9]", Blocked: true},
	}

	t.Run("block list", func(t *testing.T) {
		// Gambling already blocked: no toggle. Social Networking must be
		// blocked, Video Sharing must be allowed.
		toggles := PlanToggles(available, []string{"Gambling", "Social Networking"})
		want := []Toggle{
			{Category: available[1], Block: true},
			{Category: available[2], Block: false},
		}
		if !reflect.DeepEqual(toggles, want) {
			t.Fatalf("unexpected plan:\n got %+v\nwant %+v", toggles, want)
		}
	})

	t.Run("allow everything", func(t *testing.T) {
		toggles := PlanToggles(available, nil)
		if len(toggles) != 2 {
			t.Fatalf("expected 2 unblock toggles, got %+v", toggles)
		}
		for _, tog := range toggles {
			if tog.Block {
				t.Fatalf("expected only unblock toggles, got %+v", tog)
			}
		}
	})

	t.Run("already in desired state", func(t *testing.T) {
		if toggles := PlanToggles(available, []string{"Gambling", "Video Sharing"}); len(toggles) != 0 {
			t.Fatalf("expected empty plan, got %+v", toggles)
		}
	})
}

func TestMissingCategories(t *testing.T) {
	available := []Category{{Name: "Gambling"}, {Name: "Chat"}}
	missing := MissingCategories(available, []string{"Gambling", "Retired Category"})
	if want := []string{"Retired Category"}; !reflect.DeepEqual(missing, want) {
		t.Fatalf("unexpected missing list: %v", missing)
	}
}

func TestParseNetworkIDs(t *testing.T) {
	html := `
<html><body>
  <a href="/settings/1234567/content_filtering">Home</a>
  <a href="/settings/1234567/content_filtering">Home again</a>
  <a href="/settings/7654321/content_filtering">Office</a>
  <a href="/settings">Overview</a>
</body></html>`

	ids, err := ParseNetworkIDs(html)
	if err != nil {
		t.Fatalf("ParseNetworkIDs returned error: %v", err)
	}
	if want := []string{"1234567", "7654321"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}
