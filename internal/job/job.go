package job

import "fmt"

type Kind int

const (
	KindReal Kind = iota
	KindBlend
)

func (k Kind) String() string {
	if k == KindBlend {
		return "blend"
	}
	return "real"
}

// Job is one frame of the output stream: either real frame Index, or blend
// Step of Steps between real frame Index and Index+1.
type Job struct {
	Kind  Kind
	Index int
	Step  int
	Steps int
}

func Real(index int) Job {
	return Job{Kind: KindReal, Index: index}
}

func Blend(index, step, steps int) Job {
	return Job{Kind: KindBlend, Index: index, Step: step, Steps: steps}
}

// Alpha is the weight of frame Index+1 in this job; 0 for real frames.
func (j Job) Alpha() float64 {
	if j.Kind != KindBlend {
		return 0
	}
	return float64(j.Step) / float64(j.Steps+1)
}

func (j *Job) Print() string {
	if j.Kind == KindBlend {
		return fmt.Sprintf("Job: blend %d->%d step %d/%d alpha %.3f", j.Index, j.Index+1, j.Step, j.Steps, j.Alpha())
	}
	return fmt.Sprintf("Job: real %d", j.Index)
}

// Count is the number of output frames for frames inputs and steps blends
// per gap.
func Count(frames, steps int) int {
	if frames <= 0 {
		return 0
	}
	if steps < 0 {
		steps = 0
	}
	return frames + (frames-1)*steps
}

// Plan lists the output frames in stream order: real 0, its blends, real 1, ...
// The last real frame has no blends after it.
func Plan(frames, steps int) []Job {
	jobs := make([]Job, 0, Count(frames, steps))
	for n := 0; n < frames; n++ {
		jobs = append(jobs, Real(n))
		if n == frames-1 {
			break
		}
		for s := 1; s <= steps; s++ {
			jobs = append(jobs, Blend(n, s, steps))
		}
	}
	return jobs
}
