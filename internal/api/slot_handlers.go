package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

func addSlotHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddSlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		slot, err := svc.AddSlot(r.Context(), req.toDomain())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, slot)
	}
}

func addRecurringSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecurringSlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		domainReq, err := req.toDomain()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		slots, err := svc.AddRecurring(r.Context(), domainReq)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, RecurringSlotResponse{
			Message: "weekly slots created",
			Count:   len(slots),
			Slots:   slots,
		})
	}
}

func deleteSlotHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, ok := uuidParam(w, r, "slot_id")
		if !ok {
			return
		}
		if err := svc.DeleteSlot(r.Context(), slotID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "slot deleted"})
	}
}

func listSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hcpID, ok := uuidParam(w, r, "hcp_id")
		if !ok {
			return
		}
		date, err := civil.ParseDate(chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		freeOnly := false
		if v := r.URL.Query().Get("available"); v != "" {
			if freeOnly, err = strconv.ParseBool(v); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_query", "available must be true or false")
				return
			}
		}

		slots, err := svc.ListSlots(r.Context(), hcpID, date, freeOnly)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
	}
}

func listUpcomingSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hcpID, ok := uuidParam(w, r, "hcp_id")
		if !ok {
			return
		}

		var from civil.Date
		if v := r.URL.Query().Get("from"); v != "" {
			d, err := civil.ParseDate(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
				return
			}
			from = d
		}

		slots, err := svc.ListUpcoming(r.Context(), hcpID, from)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
	}
}
