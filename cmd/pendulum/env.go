package main

import (
	"math"

	"github.com/milosgajdos/deepnet/pkg/rng"
)

// pendulum is a minimal inverted-pendulum environment: state is
// (angle, angular velocity), action is a single torque in [-1,1] scaled to
// [-maxTorque, maxTorque], reward penalizes distance from upright and
// control effort. It is a standalone stand-in for the reference's deep-c
// ddpg examples, which train against a compiled physics simulator this
// module has no equivalent of.
type pendulum struct {
	theta, thetaDot float64
	src             *rng.Source

	gravity, mass, length, dt, maxTorque, maxSpeed float64
}

func newPendulum(src *rng.Source) *pendulum {
	return &pendulum{
		src: src,
		gravity: 9.8, mass: 1.0, length: 1.0,
		dt: 0.05, maxTorque: 2.0, maxSpeed: 8.0,
	}
}

// reset puts the pendulum in a random state (angle uniform in [-pi, pi),
// angular velocity uniform in [-1, 1)) and returns the initial observation.
func (p *pendulum) reset() []float64 {
	p.theta = p.src.Float64(-math.Pi, math.Pi)
	p.thetaDot = p.src.Float64(-1, 1)
	return p.state()
}

func (p *pendulum) state() []float64 {
	return []float64{math.Sin(p.theta), p.thetaDot / p.maxSpeed}
}

// step applies action[0] (in [-1,1]) for one timestep and returns the
// resulting observation, reward and whether the episode has ended. This
// environment never terminates early; callers bound episode length
// themselves.
func (p *pendulum) step(action []float64) (next []float64, reward float64, done bool) {
	torque := action[0] * p.maxTorque

	angleCost := wrapAngle(p.theta) * wrapAngle(p.theta)
	reward = -(angleCost + 0.1*p.thetaDot*p.thetaDot + 0.001*torque*torque)

	accel := -3 * p.gravity / (2 * p.length) * math.Sin(p.theta+math.Pi)
	accel += 3.0 / (p.mass * p.length * p.length) * torque

	p.thetaDot += accel * p.dt
	if p.thetaDot > p.maxSpeed {
		p.thetaDot = p.maxSpeed
	} else if p.thetaDot < -p.maxSpeed {
		p.thetaDot = -p.maxSpeed
	}
	p.theta += p.thetaDot * p.dt

	return p.state(), reward, false
}

func wrapAngle(theta float64) float64 {
	theta = math.Mod(theta+math.Pi, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return theta - math.Pi
}
