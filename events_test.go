package imageload_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	imageload "github.com/filecoin-project/go-imageload"
)

func TestEventCodesHaveNames(t *testing.T) {
	for _, code := range []imageload.EventCode{imageload.Accepted, imageload.Completed} {
		require.NotEmpty(t, imageload.Events[code])
	}
}
