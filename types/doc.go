// Copyright (c) Instaze Authors.
// Licensed under the MIT License.

/*
Package types 定义 instaze 的共享领域类型。

# 核心类型

  - ActionKind / Outcome — 动作种类与终态枚举
  - ActionRecord         — 追加式动作记录（配额追踪的唯一事实来源）
  - TargetProfile        — 候选账号的只读画像
  - Error / ErrorCode    — 统一结构化错误与错误码
*/
package types
