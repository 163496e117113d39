// Copyright (c) Instaze Authors.
// Licensed under the MIT License.

// Package campaign 工作流编排器：按顺序执行活动阶段
//
// 一个活动（campaign）由若干有序阶段组成，每个阶段绑定一个目标来源
// （selector）、一种动作类型和独立的上限与冷却参数。编排器严格单线程
// 地驱动 目标 → 过滤 → 配额 → 执行 → 落盘 流水线：
//
//   - 每次动作前重新检查全局配额，耗尽即正常结束阶段（非错误）
//   - 连续失败达到阈值时熔断当前阶段，进入下一阶段
//   - 用户间与阶段间的冷却均可被取消信号即时打断
//   - 中止时已落盘的记录保持有效，不做任何回滚
//
// Package campaign sequences phased interaction campaigns: each phase binds
// a target selector to one action kind with its own caps and cooldowns. The
// orchestrator is strictly single-threaded, re-checks global quota before
// every action, trips a consecutive-failure breaker per phase, and keeps
// every cooldown cancellable. Aborts preserve all appended records.
package campaign
