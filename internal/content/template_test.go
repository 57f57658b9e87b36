package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroomhq/warroom/internal/domain"
)

func TestStarterTemplateHTML(t *testing.T) {
	tmpl, err := StarterTemplate("Product Launch", domain.ContentHTML)
	require.NoError(t, err)

	assert.Equal(t, "Exclusive Product Launch for {first_name}", tmpl.Subject)
	assert.Equal(t, domain.ContentHTML, tmpl.ContentType)
	assert.Contains(t, tmpl.Body, "<title>Product Launch</title>")
	assert.Contains(t, tmpl.Body, "exclusive product launch")
	// Personalization tokens survive rendering for send-time substitution.
	assert.Contains(t, tmpl.Body, "{first_name}")
	assert.Contains(t, tmpl.Body, "{name}")
}

func TestStarterTemplatePlain(t *testing.T) {
	tmpl, err := StarterTemplate("Newsletter", domain.ContentPlain)
	require.NoError(t, err)

	assert.Equal(t, domain.ContentPlain, tmpl.ContentType)
	assert.NotContains(t, tmpl.Body, "<html")
	assert.Contains(t, tmpl.Body, "Hello {first_name},")
	assert.Contains(t, tmpl.Body, "exclusive newsletter")
}

func TestStarterTemplateDefaultType(t *testing.T) {
	tmpl, err := StarterTemplate("", domain.ContentPlain)
	require.NoError(t, err)
	assert.Contains(t, tmpl.Subject, "Marketing Campaign")
}
