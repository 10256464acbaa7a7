package tryon

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayloads(t *testing.T) {
	req := GenerationRequest{
		PersonImage:  []byte{0xff, 0xd8, 0x01},
		GarmentImage: []byte{0xff, 0xd8, 0x02},
		Style:        "  vintage denim  ",
	}

	payloads := BuildPayloads(req)
	require.Len(t, payloads, 2)
	assert.Equal(t, VariantWithModalities, payloads[0].Variant)
	assert.Equal(t, VariantDefaultModalities, payloads[1].Variant)

	for _, p := range payloads {
		require.Len(t, p.Body.Contents, 1)
		content := p.Body.Contents[0]
		assert.Equal(t, "user", content.Role)
		require.Len(t, content.Parts, 3)
		assert.True(t, strings.HasSuffix(content.Parts[0].Text, "Additional style: vintage denim."))
		assert.Equal(t, req.PersonImage, content.Parts[1].InlineData.Data)
		assert.Equal(t, req.GarmentImage, content.Parts[2].InlineData.Data)
		assert.Equal(t, InputMIMEType, content.Parts[1].InlineData.MIMEType)
		assert.Equal(t, InputMIMEType, content.Parts[2].InlineData.MIMEType)
	}

	require.NotNil(t, payloads[0].Body.GenerationConfig)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, payloads[0].Body.GenerationConfig.ResponseModalities)
	assert.Nil(t, payloads[1].Body.GenerationConfig)
}

func TestBuildPayloads_Wire(t *testing.T) {
	payloads := BuildPayloads(GenerationRequest{PersonImage: []byte("p"), GarmentImage: []byte("g")})

	raw, err := json.Marshal(payloads[0].Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `"generationConfig":{"responseModalities":["TEXT","IMAGE"]}`)
	assert.Contains(t, body, `"inlineData":{"mimeType":"image/jpeg","data":"cA=="}`)

	raw, err = json.Marshal(payloads[1].Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "generationConfig")
}

func TestResolveStyle(t *testing.T) {
	assert.Equal(t, DefaultStyle, ResolveStyle(""))
	assert.Equal(t, DefaultStyle, ResolveStyle(" \t\n"))
	assert.Equal(t, "boho", ResolveStyle(" boho "))
	assert.True(t, strings.HasSuffix(Instruction(""), "Additional style: "+DefaultStyle+"."))
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "Generation in progress (attempt 1/2)...", StatusMessage(0, 2))
	assert.Equal(t, "Generation in progress (attempt 2/2)...", StatusMessage(1, 2))
	assert.Equal(t, "Generation in progress (attempt 1/2)...", StatusMessage(0, 0))
}
