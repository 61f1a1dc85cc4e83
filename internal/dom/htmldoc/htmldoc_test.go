package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<ul id="list">
<li id="a" class="x y" style="display: none; color: red">uno</li>
<li id="b">dos</li>
<li id="c" class="x">tres</li>
</ul>
<input id="ini" type="date" value="2024-06-01"/>
<input id="ok" type="checkbox"/>
<select id="s">
<optgroup label="g">
<option>  Cine </option>
<option value="teatro" selected>Teatro</option>
</optgroup>
</select>
</body></html>`

func parse(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(page)
	require.NoError(t, err)
	return doc
}

func TestQueries(t *testing.T) {
	doc := parse(t)
	assert.Equal(t, []string{"a", "c"}, IDs(doc.QueryAll("li.x")))
	assert.Equal(t, "b", doc.Query("li:not(.x)").ID())
	assert.Nil(t, doc.Query("table"))
	assert.Nil(t, doc.Query("li[["), "bad selectors match nothing")
	assert.Equal(t, "body", doc.Body().TagName())

	list := doc.ByID("list")
	require.NotNil(t, list)
	assert.Len(t, list.QueryAll("li"), 3)
	assert.Equal(t, "list", doc.ByID("b").Parent().ID())
	assert.Nil(t, doc.ByID("nope"))

	// one wrapper per node
	assert.Same(t, doc.ByID("a"), doc.Query("#a"))
}

func TestClasses(t *testing.T) {
	doc := parse(t)
	a := doc.ByID("a")
	a.AddClass("hide")
	a.AddClass("hide")
	assert.Equal(t, []string{"x", "y", "hide"}, a.Classes())
	a.RemoveClass("x")
	a.RemoveClass("missing")
	assert.Equal(t, []string{"y", "hide"}, a.Classes())

	b := doc.ByID("b")
	b.AddClass("hide")
	b.RemoveClass("hide")
	_, ok := b.Attr("class")
	assert.False(t, ok)
}

func TestClearStyle(t *testing.T) {
	doc := parse(t)
	a := doc.ByID("a")
	a.ClearStyle("display")
	style, _ := a.Attr("style")
	assert.Equal(t, "color: red", style)
	a.ClearStyle("COLOR")
	_, ok := a.Attr("style")
	assert.False(t, ok)
}

func TestMoveAndRemove(t *testing.T) {
	doc := parse(t)
	list := doc.ByID("list")
	list.AppendChild(doc.ByID("a"))
	assert.Equal(t, []string{"b", "c", "a"}, IDs(list.QueryAll("li")))

	doc.ByID("b").Remove()
	assert.Equal(t, []string{"c", "a"}, IDs(list.QueryAll("li")))
	assert.Equal(t, []string{"a", "c"}, SortedIDs(list.QueryAll("li")))
}

func TestSelectValue(t *testing.T) {
	doc := parse(t)
	s := doc.ByID("s")
	assert.Equal(t, "teatro", s.Value())
	assert.Equal(t, "teatro", s.DefaultValue())

	s.SetValue("Cine")
	assert.Equal(t, "Cine", s.Value(), "options without value use their text")
	s.SetValue("opera")
	assert.Equal(t, "", s.Value())
	assert.Equal(t, "teatro", s.DefaultValue())
}

func TestLiveValueAndRender(t *testing.T) {
	doc := parse(t)
	ini := doc.ByID("ini")

	ini.SetAttr("value", "2024-06-05")
	assert.Equal(t, "2024-06-05", ini.Value(), "untouched control follows its default")

	ini.SetValue("2024-07-01")
	assert.Equal(t, "2024-07-01", ini.Value())
	assert.Equal(t, "2024-06-05", ini.DefaultValue())

	ok := doc.ByID("ok")
	assert.False(t, ok.Checked())
	ok.SetChecked(true)
	assert.False(t, ok.DefaultChecked())
	doc.ByID("s").SetValue("Cine")

	out, err := doc.Bytes()
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, `value="2024-07-01"`)
	assert.Contains(t, html, `id="ok" type="checkbox" checked=""`)
	assert.Contains(t, html, `<option selected="">  Cine </option>`)
	assert.Contains(t, html, `<option value="teatro">Teatro</option>`)
}

func TestChangeValueFiresHandlers(t *testing.T) {
	doc := parse(t)
	var seen []string
	ini := doc.ByID("ini")
	ini.OnChange(func() { seen = append(seen, "first:"+ini.Value()) })
	ini.OnChange(func() { seen = append(seen, "second") })

	assert.True(t, doc.ChangeValue("ini", "2024-08-01"))
	assert.Equal(t, []string{"first:2024-08-01", "second"}, seen)

	assert.True(t, doc.ChangeValue("ok", "on"))
	assert.True(t, doc.ByID("ok").Checked())
	assert.False(t, doc.ChangeValue("nope", "x"))
}

func TestSetText(t *testing.T) {
	doc := parse(t)
	b := doc.ByID("b")
	b.SetText("<dos>")
	assert.Equal(t, "<dos>", b.Text())
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "&lt;dos&gt;")
}
