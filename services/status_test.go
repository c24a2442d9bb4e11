package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loyalty-backend/models"
)

func TestCheckAppointmentTransition(t *testing.T) {
	cases := map[string]struct {
		from, to string
		valid    bool
	}{
		"confirm scheduled":  {models.AppointmentScheduled, models.AppointmentConfirmed, true},
		"cancel scheduled":   {models.AppointmentScheduled, models.AppointmentCancelled, true},
		"complete confirmed": {models.AppointmentConfirmed, models.AppointmentCompleted, true},
		"cancel confirmed":   {models.AppointmentConfirmed, models.AppointmentCancelled, true},
		"skip confirmation":  {models.AppointmentScheduled, models.AppointmentCompleted, false},
		"reopen completed":   {models.AppointmentCompleted, models.AppointmentScheduled, false},
		"cancel completed":   {models.AppointmentCompleted, models.AppointmentCancelled, false},
		"revive cancelled":   {models.AppointmentCancelled, models.AppointmentConfirmed, false},
		"unknown target":     {models.AppointmentScheduled, "postponed", false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := CheckAppointmentTransition(tc.from, tc.to)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestCheckWorkOrderTransition(t *testing.T) {
	assert.NoError(t, CheckWorkOrderTransition(models.WorkOrderSubmitted, models.WorkOrderInProgress))
	assert.NoError(t, CheckWorkOrderTransition(models.WorkOrderInProgress, models.WorkOrderCompleted))
	assert.NoError(t, CheckWorkOrderTransition(models.WorkOrderInProgress, models.WorkOrderCancelled))
	assert.ErrorIs(t, CheckWorkOrderTransition(models.WorkOrderSubmitted, models.WorkOrderCompleted), ErrInvalidTransition)
	assert.ErrorIs(t, CheckWorkOrderTransition(models.WorkOrderCompleted, models.WorkOrderInProgress), ErrInvalidTransition)
}

func TestCustomerPermissions(t *testing.T) {
	assert.True(t, CanCustomerSetAppointment(models.AppointmentCancelled))
	assert.False(t, CanCustomerSetAppointment(models.AppointmentConfirmed))

	assert.True(t, CanCustomerSetWorkOrder(models.WorkOrderSubmitted, models.WorkOrderCancelled))
	assert.False(t, CanCustomerSetWorkOrder(models.WorkOrderInProgress, models.WorkOrderCancelled))
	assert.False(t, CanCustomerSetWorkOrder(models.WorkOrderSubmitted, models.WorkOrderInProgress))
}
