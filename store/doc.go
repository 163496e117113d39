// Copyright (c) Instaze Authors.
// Licensed under the MIT License.

/*
Package store 提供追加式动作日志的持久化存储。

# 概述

store 包基于 GORM + 纯 Go SQLite（WAL + synchronous=FULL）实现动作记录的
持久化。日志按动作种类（follow / unfollow / like）逻辑分区，共享同一份
一致性契约：Append 返回成功即代表记录已落盘，崩溃后不会丢失。

启动时执行 SQLite quick_check 完整性检查，检查失败则拒绝启动（fail
closed）：宁可少做动作，也不能在历史缺失的情况下突破平台限额。

# 核心类型

  - Store — 单写者动作存储：Append / QuerySince / CountSuccessSince /
    WasActedOn / LastAction / FollowedActive / Export
*/
package store
