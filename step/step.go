// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package step implements resumable decode computations.
//
// A Step is either finished (holding a value or an error) or suspended on a
// Request. A suspended step is resumed by handing it a Response, which yields
// the next step. Drivers keep resuming until the step finishes; the computation
// itself never performs I/O.
//
// Step 是可恢复的计算：要么已完成（值或错误），要么挂起等待一个请求的响应。
package step

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNoResponse is returned when a suspended request was not answered.
// ErrNoResponse 表示挂起的请求没有得到响应。
var ErrNoResponse = errors.New("step: no response for request")

// ErrUnexpectedRequest is returned by Sync when the step suspended.
var ErrUnexpectedRequest = errors.New("step: unexpected request")

// RequestKind enumerates the data a computation can ask for.
type RequestKind byte

const (
	// StorageRequest asks for the 32 byte contents of a storage slot.
	// StorageRequest 请求某个存储槽的 32 字节内容。
	StorageRequest RequestKind = iota
)

func (k RequestKind) String() string {
	switch k {
	case StorageRequest:
		return "storage"
	default:
		return fmt.Sprintf("request(%d)", byte(k))
	}
}

// Request names a datum that is not available in the local state.
type Request struct {
	Kind    RequestKind
	Address common.Address // contract owning the storage, zero if unknown
	Slot    common.Hash    // fully resolved slot key
}

func (r *Request) String() string {
	return fmt.Sprintf("%v slot %x of %x", r.Kind, r.Slot, r.Address)
}

// Response carries the raw bytes answering a Request.
type Response struct {
	Data []byte
}

// Step is one state of a resumable computation producing a T.
type Step[T any] struct {
	value   T
	err     error
	request *Request
	next    func(*Response) Step[T]
}

// Done returns a finished step holding v.
func Done[T any](v T) Step[T] {
	return Step[T]{value: v}
}

// Fail returns a finished step holding err.
func Fail[T any](err error) Step[T] {
	return Step[T]{err: err}
}

// Suspend returns a step waiting on req. The continuation next is invoked
// with the response once the driver supplies it.
// Suspend 返回一个等待 req 的步骤，驱动方提供响应后调用 next 继续执行。
func Suspend[T any](req *Request, next func(*Response) Step[T]) Step[T] {
	return Step[T]{request: req, next: next}
}

// Suspended reports whether the step waits for a response.
func (s Step[T]) Suspended() bool {
	return s.request != nil
}

// Request returns the pending request, or nil if the step is finished.
func (s Step[T]) Request() *Request {
	return s.request
}

// Resume feeds a response into a suspended step. Resuming a finished step
// returns it unchanged.
func (s Step[T]) Resume(resp *Response) Step[T] {
	if s.request == nil {
		return s
	}
	if resp == nil {
		return Fail[T](fmt.Errorf("%w: %v", ErrNoResponse, s.request))
	}
	return s.next(resp)
}

// Result returns the outcome of a finished step. Calling it on a suspended
// step reports ErrUnexpectedRequest.
func (s Step[T]) Result() (T, error) {
	if s.request != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrUnexpectedRequest, s.request)
	}
	return s.value, s.err
}

// Then chains f after s. Suspensions of s are propagated unchanged and f runs
// only once s finished successfully.
// Then 在 s 之后串联 f，s 的挂起会被原样向上传播。
func Then[A, B any](s Step[A], f func(A) Step[B]) Step[B] {
	if s.request != nil {
		return Suspend(s.request, func(resp *Response) Step[B] {
			return Then(s.Resume(resp), f)
		})
	}
	if s.err != nil {
		return Fail[B](s.err)
	}
	return f(s.value)
}

// Map transforms the value of s with a function that cannot suspend.
func Map[A, B any](s Step[A], f func(A) (B, error)) Step[B] {
	return Then(s, func(a A) Step[B] {
		b, err := f(a)
		if err != nil {
			return Fail[B](err)
		}
		return Done(b)
	})
}

// Catch runs h if s finishes with an error. Suspensions are propagated, so the
// handler also covers failures raised after a resume.
func Catch[T any](s Step[T], h func(error) Step[T]) Step[T] {
	if s.request != nil {
		return Suspend(s.request, func(resp *Response) Step[T] {
			return Catch(s.Resume(resp), h)
		})
	}
	if s.err != nil {
		return h(s.err)
	}
	return s
}

// Sequence runs f for the indices 0..n-1 strictly in order and collects the
// results. Index i+1 is not started before index i finished, so the order of
// emitted requests is deterministic.
// Sequence 按顺序执行 f(0..n-1) 并收集结果，保证请求发出的顺序确定。
func Sequence[T any](n int, f func(i int) Step[T]) Step[[]T] {
	if n < 0 {
		return Fail[[]T](fmt.Errorf("step: negative sequence length %d", n))
	}
	return collect(make([]T, 0, n), 0, n, f)
}

func collect[T any](acc []T, i, n int, f func(int) Step[T]) Step[[]T] {
	for ; i < n; i++ {
		s := f(i)
		if s.request != nil {
			idx := i
			return Suspend(s.request, func(resp *Response) Step[[]T] {
				return Then(s.Resume(resp), func(v T) Step[[]T] {
					// Clip so that a replayed continuation never shares the
					// backing array with another branch.
					return collect(append(slices.Clip(acc), v), idx+1, n, f)
				})
			})
		}
		if s.err != nil {
			return Fail[[]T](s.err)
		}
		acc = append(acc, s.value)
	}
	return Done(acc)
}

// Run drives s to completion, answering every request with respond.
// Run 驱动 s 直至完成，使用 respond 回答每一个请求。
func Run[T any](s Step[T], respond func(*Request) (*Response, error)) (T, error) {
	for s.request != nil {
		resp, err := respond(s.request)
		if err != nil {
			var zero T
			return zero, err
		}
		s = s.Resume(resp)
	}
	return s.value, s.err
}

// Sync returns the outcome of a step that is expected never to suspend.
func Sync[T any](s Step[T]) (T, error) {
	return s.Result()
}
