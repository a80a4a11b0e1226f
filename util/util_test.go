package util_test

import (
	"strings"
	"testing"

	"github.com/APTrust/storage-gateway/util"
	"github.com/stretchr/testify/assert"
)

func TestStringListContains(t *testing.T) {
	list := []string{"apple", "orange", "banana"}
	assert.True(t, util.StringListContains(list, "orange"))
	assert.False(t, util.StringListContains(list, "wedgie"))
	// Don't crash on nil list
	assert.False(t, util.StringListContains(nil, "mars"))
}

func TestStringListContainsFold(t *testing.T) {
	list := []string{".DS_Store", "Thumbs.db"}
	assert.True(t, util.StringListContainsFold(list, ".ds_store"))
	assert.True(t, util.StringListContainsFold(list, "THUMBS.DB"))
	assert.False(t, util.StringListContainsFold(list, "report.pdf"))
	assert.False(t, util.StringListContainsFold(nil, "mars"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, ".DS_Store", util.BaseName("import/global/.DS_Store"))
	assert.Equal(t, "file.txt", util.BaseName("file.txt"))
	assert.Equal(t, "", util.BaseName("import/global/"))
}

func TestExpandTilde(t *testing.T) {
	expanded, err := util.ExpandTilde("~/tmp")
	assert.Nil(t, err)
	assert.True(t, len(expanded) > 6)
	assert.True(t, strings.HasSuffix(expanded, "tmp"))

	expanded, err = util.ExpandTilde("/nothing/to/expand")
	assert.Nil(t, err)
	assert.Equal(t, "/nothing/to/expand", expanded)
}
