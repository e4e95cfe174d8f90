package equipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEquipResultString(t *testing.T) {
	tests := []struct {
		r    EquipResult
		want string
	}{
		{Success, "SUCCESS"},
		{StorageNotReady, "STORAGE_NOT_READY"},
		{SlotMismatch, "SLOT_MISMATCH"},
		{TagRequirementsFailed, "TAG_REQUIREMENTS_FAILED"},
		{EquipResult(42), "UNKNOWN(42)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.r.String())
	}
	assert.True(t, Success.OK())
	assert.False(t, NoAvailableSlots.OK())
}
