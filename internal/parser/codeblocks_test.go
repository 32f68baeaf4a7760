package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCodeBlocksFilesMap(t *testing.T) {
	text := `{"files": {"main.py": "print('hi')\n", "util.py": "x = 1\n"}}`
	blocks := ExtractCodeBlocks(text)
	assert.Equal(t, "print('hi')\n", blocks["main.py"])
	assert.Equal(t, "x = 1\n", blocks["util.py"])
}

func TestExtractCodeBlocksFencedWithFilename(t *testing.T) {
	text := "Create `hello.py`:\n\n```python\nprint(\"hello\")\n```\n"
	blocks := ExtractCodeBlocks(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, "print(\"hello\")\n", blocks["hello.py"])
}

func TestExtractCodeBlocksContentHeuristics(t *testing.T) {
	text := "```\nimport pygame\npygame.init()\n```\n\n```\n<!DOCTYPE html>\n<html></html>\n```\n"
	blocks := ExtractCodeBlocks(text)
	assert.Contains(t, blocks, "game_1.py")
	assert.Contains(t, blocks, "index_2.html")
}

func TestExtractCodeBlocksBareScript(t *testing.T) {
	text := "def main():\n    pass\n\nif __name__ == \"__main__\":\n    main()\n"
	blocks := ExtractCodeBlocks(text)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks, "script.py")
}

func TestExtractCodeFenced(t *testing.T) {
	text := "Here's the fix:\n```python\nvalue = 42\n```\nHope that helps!"
	assert.Equal(t, "value = 42\n", ExtractCode(text))
}

func TestExtractCodeStripsLeadIn(t *testing.T) {
	text := "Sure, here you go:\nvalue = 42"
	assert.Equal(t, "value = 42\n", ExtractCode(text))
}
