package ai

import (
	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
)

// WaypointArrival это радиус, в котором точка маршрута считается пройденной
const WaypointArrival = 36.0

// stopControl это управление по умолчанию, когда ехать некуда
var stopControl = physics.Control{Brake: 1}

// TrafficControl ведёт машину по её замкнутому маршруту
func TrafficControl(ctx *Context, car *entity.Vehicle) physics.Control {
	if car.Path < 0 || car.Path >= len(ctx.City.CarPaths) || len(ctx.City.CarPaths[car.Path]) == 0 {
		return stopControl
	}
	path := ctx.City.CarPaths[car.Path]

	ctl, distance := DriveToward(car, path.At(car.PathIndex), 1, ctx.Store.Vehicles)
	if distance < WaypointArrival {
		car.PathIndex = (car.PathIndex + 1) % len(path)
	}
	return ctl
}
