package dto

import "vehicle-scheduling-service/internal/domain"

type ListInstancesResponse struct {
	Instances []string `json:"instances"`
}

type InstanceResponse struct {
	domain.InstanceStats
	Boundary string `json:"boundary"`
}
