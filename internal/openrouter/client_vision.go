package openrouter

import (
	"context"
	"encoding/base64"
	"fmt"
)

const visionPrompt = `You are a receipt transcription assistant. Transcribe ALL text visible on this receipt image, line by line, exactly as printed. Keep one receipt line per output line. Include the store name, date, every purchased item with its price, and the subtotal, tax and total lines.

Do not add commentary, explanations or markdown. Output only the transcribed text.`

// ExtractReceiptText transcribes the receipt at imageURL to plain text.
func (c *Client) ExtractReceiptText(ctx context.Context, imageURL string) (string, error) {
	userContent := []contentPart{
		{Type: "text", Text: "Transcribe the text from this receipt image."},
		{Type: "image_url", ImageURL: &imageURLPart{URL: imageURL}},
	}

	content, err := c.chatCompletion(ctx, []message{
		textMessage("system", visionPrompt),
		{Role: "user", Content: userContent},
	})
	if err != nil {
		return "", err
	}

	text := stripCodeFences(content)
	if text == "" {
		return "", &OpenRouterError{
			Op:  "extract_receipt_text",
			Err: fmt.Errorf("model returned empty transcription"),
		}
	}
	return text, nil
}

// ExtractReceiptTextFromBytes transcribes receipt image bytes by inlining them
// as a data URL. Used when no object storage is configured to host the image.
func (c *Client) ExtractReceiptTextFromBytes(ctx context.Context, imageData []byte, contentType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(imageData))
	return c.ExtractReceiptText(ctx, dataURL)
}
