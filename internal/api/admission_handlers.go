package api

import (
	"net/http"

	"github.com/hackgods/hospital-scheduling/internal/admission"
)

func admitHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdmitRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		domainReq, err := req.toDomain()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		adm, err := svc.Admit(r.Context(), domainReq)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, adm)
	}
}

func addFeesHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "admission_id")
		if !ok {
			return
		}
		var req AddFeesRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		adm, err := svc.AddFees(r.Context(), id, req.toDomain())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, adm)
	}
}

func dischargeHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "admission_id")
		if !ok {
			return
		}
		summary, err := svc.Discharge(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func admittedPatientsHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAdmitted(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func getAdmissionHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "admission_id")
		if !ok {
			return
		}
		adm, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, adm)
	}
}

func addRoomHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		room, err := svc.AddRoom(r.Context(), req.toDomain())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, room)
	}
}

func updateRoomHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "room_id")
		if !ok {
			return
		}
		var req RoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		room, err := svc.UpdateRoom(r.Context(), id, req.toDomain())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room)
	}
}

func deleteRoomHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "room_id")
		if !ok {
			return
		}
		if err := svc.DeleteRoom(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "room deleted"})
	}
}

func getRoomHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "room_id")
		if !ok {
			return
		}
		room, err := svc.GetRoom(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room)
	}
}

func listRoomsHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := admission.RoomFilter{
			Type:   admission.RoomType(r.URL.Query().Get("type")),
			Status: admission.RoomStatus(r.URL.Query().Get("status")),
		}
		rooms, err := svc.ListRooms(r.Context(), f)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

func availableRoomsHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grouped, err := svc.ListAvailableRooms(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, grouped)
	}
}
