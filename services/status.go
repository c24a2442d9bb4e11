package services

import (
	"errors"
	"fmt"

	"loyalty-backend/models"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var appointmentTransitions = map[string][]string{
	models.AppointmentScheduled: {models.AppointmentConfirmed, models.AppointmentCancelled},
	models.AppointmentConfirmed: {models.AppointmentCompleted, models.AppointmentCancelled},
}

var workOrderTransitions = map[string][]string{
	models.WorkOrderSubmitted:  {models.WorkOrderInProgress, models.WorkOrderCancelled},
	models.WorkOrderInProgress: {models.WorkOrderCompleted, models.WorkOrderCancelled},
}

func checkTransition(table map[string][]string, from, to string) error {
	for _, allowed := range table[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func CheckAppointmentTransition(from, to string) error {
	return checkTransition(appointmentTransitions, from, to)
}

func CheckWorkOrderTransition(from, to string) error {
	return checkTransition(workOrderTransitions, from, to)
}

// CanCustomerSetAppointment limits customers to cancelling their own bookings.
func CanCustomerSetAppointment(to string) bool {
	return to == models.AppointmentCancelled
}

// CanCustomerSetWorkOrder only allows withdrawing an order before work starts.
func CanCustomerSetWorkOrder(from, to string) bool {
	return from == models.WorkOrderSubmitted && to == models.WorkOrderCancelled
}
