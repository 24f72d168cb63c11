package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const samplePage = `
<html>
<head><title>  Example   Store </title></head>
<body>
  <script>var ignored = "Click me from script";</script>
  <nav>
    <a href="/">Home</a>
    <a href="/products">Products</a>
    <a href="/products">Products</a>
  </nav>
  <main>
    <h1>Welcome</h1>
    <p>Find what you need.</p>
    <button> Add to cart </button>
    <form>
      <input type="text" value="not an action">
      <input type="submit" value="Search">
    </form>
  </main>
</body>
</html>`

func TestExtractActions(t *testing.T) {
	actions := ExtractActions(samplePage)
	assert.Equal(t, []string{"Home", "Products", "Add to cart", "Search"}, actions)
}

func TestExtractActionsEmptyPage(t *testing.T) {
	assert.Empty(t, ExtractActions("<html><body><p>nothing to do</p></body></html>"))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Example Store", Title(samplePage))
	assert.Equal(t, "", Title("<html><body></body></html>"))
}

func TestVisibleText(t *testing.T) {
	text := VisibleText(samplePage, 4096)
	assert.Contains(t, text, "Welcome")
	assert.Contains(t, text, "Find what you need.")
	assert.NotContains(t, text, "Click me from script")

	capped := VisibleText(samplePage, 10)
	assert.LessOrEqual(t, len(capped), 10)
}
