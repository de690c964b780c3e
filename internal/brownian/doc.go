// Package brownian advances particles with overdamped Langevin (Brownian)
// dynamics.
//
// One step is the composition of four sub-steps, applied to translation and,
// when a particle rotates, to orientation:
//
//   - [Drag]: deterministic displacement force*dt/gamma
//   - [DragVel]: terminal velocity force/gamma (overwrites the velocity)
//   - [RandomWalk]: Gaussian displacement with variance 2 kT dt / gamma
//   - [RandomWalkVel]: Gaussian velocity with variance kT / m (added)
//
// The rotational analogues [DragRot], [DragVelRot], [RandomWalkRot] and
// [RandomWalkVelRot] act on the body frame torque and angular velocity and
// compose the resulting rotation onto the particle quaternion.
//
// With anisotropic friction the deterministic and stochastic displacements
// are computed along the particle's principal axes and rotated into the lab
// frame.
//
// [Propagator.Sweep] applies the full step to a slice of particles across
// worker goroutines. Shared state is carried explicitly in a [Context]:
//
//	ctx = prop.Sweep(particles, dt, ctx)
//	if ctx.ResortNeeded {
//		rebuild(particles)
//		ctx.Acknowledge()
//	}
package brownian
