// Copyright (c) Instaze Authors.
// Licensed under the MIT License.

/*
Package quota 实现滑动窗口配额追踪。

# 概述

Tracker 对追加式动作日志做重新计数来回答"现在还允许多少次 K 类动作"。
每个 Window 以 [now-Per, now) 半开区间约束一组动作种类的成功次数，
同一种类可同时受多个窗口（小时 + 天）约束，取所有适用窗口的最小余量。

不维护独立计数器：记录落盘即隐式扣减，崩溃重启后不存在计数器与日志
的分歧。
*/
package quota
