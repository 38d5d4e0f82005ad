package lookuptool

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridge/backend/internal/domain"
)

func TestConfigured(t *testing.T) {
	assert.False(t, New("", "node").Configured())
	assert.True(t, New("/opt/tools/lookup.js", "node").Configured())
}

func TestGetProductByBarcode_NotConfigured(t *testing.T) {
	client := New("", "node")

	_, err := client.GetProductByBarcode(context.Background(), "123")

	assert.ErrorIs(t, err, domain.ErrToolNotConfigured)
}

func TestClose_WithoutConnection(t *testing.T) {
	client := New("/opt/tools/lookup.js", "node")
	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close(), "closing twice stays a no-op")
}

func TestChooseTool(t *testing.T) {
	tests := []struct {
		name       string
		advertised []string
		want       string
	}{
		{"exact first preference", []string{"get_product_by_barcode", "other"}, "get_product_by_barcode"},
		{"case-insensitive match keeps advertised spelling", []string{"GetProductByBarcode"}, "GetProductByBarcode"},
		{"preference order wins over advertised order", []string{"lookup_product", "search_by_barcode"}, "search_by_barcode"},
		{"no overlap", []string{"unrelated_tool"}, ""},
		{"empty advertised list", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chooseTool(preferredTools, tt.advertised))
		})
	}
}

func TestParseToolResult(t *testing.T) {
	t.Run("json text payload", func(t *testing.T) {
		result := mcp.NewToolResultText(`{"name": "Milk", "barcode": "123"}`)

		payload, err := parseToolResult(result)

		require.NoError(t, err)
		assert.Equal(t, "Milk", payload["name"])
		assert.Equal(t, "123", payload["barcode"])
	})

	t.Run("empty content means not found", func(t *testing.T) {
		_, err := parseToolResult(&mcp.CallToolResult{})

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("nil result means not found", func(t *testing.T) {
		_, err := parseToolResult(nil)

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("non-json text preserved under raw", func(t *testing.T) {
		result := mcp.NewToolResultText("Product not in database")

		payload, err := parseToolResult(result)

		require.NoError(t, err)
		assert.Equal(t, "Product not in database", payload["raw"])
	})

	t.Run("error result surfaces the message", func(t *testing.T) {
		_, err := parseToolResult(mcp.NewToolResultError("upstream database offline"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "upstream database offline")
	})

	t.Run("unexpected content type", func(t *testing.T) {
		result := &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.ImageContent{Type: "image", Data: "...", MIMEType: "image/png"},
			},
		}

		_, err := parseToolResult(result)

		assert.Error(t, err)
	})

	t.Run("only first content item is used", func(t *testing.T) {
		result := &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{Type: "text", Text: `{"name": "First"}`},
				mcp.TextContent{Type: "text", Text: `{"name": "Second"}`},
			},
		}

		payload, err := parseToolResult(result)

		require.NoError(t, err)
		assert.Equal(t, "First", payload["name"])
	})
}

func TestCallRequest(t *testing.T) {
	request := callRequest("get_product_by_barcode", "5900259128353")

	assert.Equal(t, "get_product_by_barcode", request.Params.Name)
	assert.Equal(t, map[string]interface{}{"barcode": "5900259128353"}, request.Params.Arguments)
}
